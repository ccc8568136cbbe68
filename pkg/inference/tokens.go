/*
Copyright © 2025 NEURAL SYMPHONY
*/
package inference

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

const encodingName = "cl100k_base"

// CountTokens returns the BPE token count for the text. Falls back to a
// whitespace word count if the encoding cannot be loaded.
func CountTokens(text string) int {
	tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return len(strings.Fields(text))
	}
	return len(encoding.Encode(text, nil, nil))
}
