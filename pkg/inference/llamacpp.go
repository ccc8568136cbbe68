/*
Copyright © 2025 NEURAL SYMPHONY

llamacpp.go runs generation through a local llama.cpp binary. This is the
fallback backend for hosts without a vLLM install.
*/
package inference

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// LlamaCppBackend shells out to llama-cli for each generation.
type LlamaCppBackend struct {
	RunnerPath string
	ModelPath  string
}

// NewLlamaCppBackend returns a backend using the given runner binary and
// GGUF model file.
func NewLlamaCppBackend(runnerPath, modelPath string) *LlamaCppBackend {
	return &LlamaCppBackend{
		RunnerPath: runnerPath,
		ModelPath:  modelPath,
	}
}

func (b *LlamaCppBackend) Name() string {
	return "llamacpp"
}

// Load verifies the runner binary and model file exist. The model itself is
// loaded per invocation by llama.cpp.
func (b *LlamaCppBackend) Load(ctx context.Context) error {
	if _, err := exec.LookPath(b.RunnerPath); err != nil {
		return fmt.Errorf("llama.cpp runner not found: %w", err)
	}
	if _, err := os.Stat(b.ModelPath); err != nil {
		return fmt.Errorf("model file not found: %w", err)
	}
	return nil
}

// Generate invokes the runner and returns its stdout.
func (b *LlamaCppBackend) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	cmd := exec.CommandContext(ctx, b.RunnerPath,
		"-m", b.ModelPath,
		"-p", prompt,
		"-n", strconv.Itoa(opts.MaxTokens),
		"--temp", strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		"--top-p", strconv.FormatFloat(opts.TopP, 'f', -1, 64),
		"--no-display-prompt",
		"--simple-io")

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("llama.cpp failed: %v: %s", err, strings.TrimSpace(errOut.String()))
	}
	return strings.TrimSpace(out.String()), nil
}
