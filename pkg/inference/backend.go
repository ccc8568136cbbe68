/*
Copyright © 2025 NEURAL SYMPHONY
*/
package inference

import (
	"context"
	"fmt"
	"strings"
)

// GenerateOptions carries the sampling parameters for a single generation.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Backend is a model-serving engine. Load is called once at startup;
// Generate is only called after Load succeeds.
type Backend interface {
	Name() string
	Load(ctx context.Context) error
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// State tracks the backend lifecycle. Requests are only served in
// StateReady; every other state rejects them.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// flattenPrompt renders a conversation into a plain prompt with a trailing
// generation cue for the assistant turn.
func flattenPrompt(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("assistant:")
	return b.String()
}
