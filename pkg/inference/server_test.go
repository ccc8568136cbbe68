/*
Copyright © 2025 NEURAL SYMPHONY
*/
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeBackend records generation calls and replies with a fixed string.
type fakeBackend struct {
	loadErr     error
	generateErr error
	reply       string

	generateCalls int
	lastPrompt    string
	lastOpts      GenerateOptions
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Load(ctx context.Context) error { return f.loadErr }

func (f *fakeBackend) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	f.generateCalls++
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.reply, nil
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestChatCompletionsEmptyMessages(t *testing.T) {
	backend := &fakeBackend{reply: "hi"}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))

	w := postChat(t, server, `{"messages": []}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, backend.generateCalls, "no generation call for empty conversation")
}

func TestChatCompletionsModelNotReady(t *testing.T) {
	server := NewServer(&fakeBackend{reply: "hi"})
	// Load never called: state is uninitialized.

	w := postChat(t, server, `{"messages": [{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChatCompletionsFailedLoadRejects(t *testing.T) {
	backend := &fakeBackend{loadErr: errors.New("weights missing")}
	server := NewServer(backend)
	assert.Error(t, server.Load(context.Background()))
	assert.Equal(t, StateFailed, server.State())

	w := postChat(t, server, `{"messages": [{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, backend.generateCalls)
}

func TestChatCompletionsSuccess(t *testing.T) {
	backend := &fakeBackend{reply: "Hello! How can I help you today?"}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))
	assert.Equal(t, StateReady, server.State())

	w := postChat(t, server, `{"messages": [{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.NotEmpty(t, resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	assert.Positive(t, resp.Usage.PromptTokens)
}

func TestChatCompletionsDefaults(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))

	postChat(t, server, `{"messages": [{"role":"user","content":"hello"}]}`)

	assert.Equal(t, 1024, backend.lastOpts.MaxTokens)
	assert.InDelta(t, 0.7, backend.lastOpts.Temperature, 1e-9)
	assert.InDelta(t, 0.9, backend.lastOpts.TopP, 1e-9)
}

func TestChatCompletionsExplicitParams(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))

	postChat(t, server, `{"messages": [{"role":"user","content":"hello"}], "max_tokens": 16, "temperature": 0.1, "top_p": 0.5}`)

	assert.Equal(t, 16, backend.lastOpts.MaxTokens)
	assert.InDelta(t, 0.1, backend.lastOpts.Temperature, 1e-9)
	assert.InDelta(t, 0.5, backend.lastOpts.TopP, 1e-9)
}

func TestChatCompletionsGenerationFailure(t *testing.T) {
	backend := &fakeBackend{generateErr: errors.New("CUDA out of memory")}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))

	w := postChat(t, server, `{"messages": [{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChatCompletionsPromptIncludesConversation(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	server := NewServer(backend)
	assert.NoError(t, server.Load(context.Background()))

	postChat(t, server, `{"messages": [{"role":"system","content":"be brief"},{"role":"user","content":"hello"}]}`)

	assert.Contains(t, backend.lastPrompt, "system: be brief")
	assert.Contains(t, backend.lastPrompt, "user: hello")
}

func TestHealth(t *testing.T) {
	server := NewServer(&fakeBackend{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "fake", resp.Backend)
}
