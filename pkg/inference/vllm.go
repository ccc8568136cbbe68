/*
Copyright © 2025 NEURAL SYMPHONY

vllm.go forwards generation to a local vLLM OpenAI-compatible server.
*/
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// VLLMBackend proxies completions to a vLLM server running next to it.
type VLLMBackend struct {
	Upstream string
	Model    string
	client   *retryablehttp.Client
}

// NewVLLMBackend returns a backend targeting the given upstream base URL.
func NewVLLMBackend(upstream, model string) *VLLMBackend {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &VLLMBackend{
		Upstream: upstream,
		Model:    model,
		client:   client,
	}
}

func (b *VLLMBackend) Name() string {
	return "vllm"
}

// Load probes the upstream health endpoint. The engine takes a while to
// load weights, so the retry client absorbs early refusals.
func (b *VLLMBackend) Load(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.Upstream+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("vLLM upstream not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vLLM upstream unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

type vllmCompletionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type vllmCompletionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Generate posts a completion request upstream and returns the first choice.
func (b *VLLMBackend) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	body, err := json.Marshal(vllmCompletionRequest{
		Model:       b.Model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
	})
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		b.Upstream+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vLLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("vLLM returned status %d: %s", resp.StatusCode, msg)
	}

	var out vllmCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode vLLM response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("vLLM returned no choices")
	}
	return out.Choices[0].Text, nil
}
