/*
Copyright © 2025 NEURAL SYMPHONY

uvloop_shim.go works around vLLM's hard import of uvloop on platforms where
uvloop does not build. A generated Python wrapper substitutes a no-op
stand-in before vLLM loads, so asyncio falls back to its default event loop.
Any later failure from vLLM itself propagates verbatim.
*/
package inference

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

const uvloopShimSource = `#!/usr/bin/env python3
"""Wrapper for vLLM on platforms without uvloop."""
import sys
from unittest.mock import MagicMock

uvloop_mock = MagicMock()
uvloop_mock.EventLoopPolicy = MagicMock
uvloop_mock.new_event_loop = MagicMock
uvloop_mock.install = lambda: None
sys.modules['uvloop'] = uvloop_mock

from vllm.entrypoints.openai import api_server

if __name__ == "__main__":
    api_server.main()
`

// NeedsUvloopShim reports whether the host platform lacks a working uvloop.
func NeedsUvloopShim() bool {
	return runtime.GOOS == "windows"
}

// WriteUvloopShim writes the wrapper script into dir and returns its path.
func WriteUvloopShim(dir string) (string, error) {
	path := filepath.Join(dir, "vllm-uvloop-shim.py")
	if err := os.WriteFile(path, []byte(uvloopShimSource), 0o755); err != nil {
		return "", fmt.Errorf("failed to write uvloop shim: %w", err)
	}
	return path, nil
}

// StartVLLMServer launches the vLLM OpenAI API server, routing through the
// uvloop shim when the platform needs it. Remaining args pass through to
// vLLM untouched.
func StartVLLMServer(ctx context.Context, pythonBin string, args ...string) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if NeedsUvloopShim() {
		shimPath, err := WriteUvloopShim(os.TempDir())
		if err != nil {
			return nil, err
		}
		cmd = exec.CommandContext(ctx, pythonBin, append([]string{shimPath}, args...)...)
	} else {
		cmd = exec.CommandContext(ctx, pythonBin,
			append([]string{"-m", "vllm.entrypoints.openai.api_server"}, args...)...)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start vLLM server: %w", err)
	}
	return cmd, nil
}
