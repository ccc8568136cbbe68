/*
Copyright © 2025 NEURAL SYMPHONY

server.go exposes the chat completion endpoint over HTTP and owns the
backend lifecycle state machine.
*/
package inference

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/neural-symphony/symphonyctl/pkg/config"
)

// Server forwards chat completion requests to a loaded backend. Construct
// with NewServer, call Load once, then Run.
type Server struct {
	backend Backend
	state   atomic.Int32
}

// NewServer returns a Server in the uninitialized state.
func NewServer(backend Backend) *Server {
	return &Server{backend: backend}
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

func (s *Server) setState(state State) {
	s.state.Store(int32(state))
}

// Load initializes the backend once. On failure the server lands in the
// failed state and must not be started.
func (s *Server) Load(ctx context.Context) error {
	s.setState(StateLoading)
	if err := s.backend.Load(ctx); err != nil {
		s.setState(StateFailed)
		return err
	}
	s.setState(StateReady)
	return nil
}

// Router builds the gin engine with the chat completion and health routes.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.POST("/v1/chat/completions", s.handleChatCompletions)
	router.GET("/health", s.handleHealth)
	return router
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No messages provided"})
		return
	}
	if s.State() != StateReady {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Model not initialized"})
		return
	}

	opts := GenerateOptions{
		MaxTokens:   config.DefaultMaxTokens,
		Temperature: config.DefaultTemperature,
		TopP:        config.DefaultTopP,
	}
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		opts.TopP = *req.TopP
	}

	prompt := flattenPrompt(req.Messages)

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.GenerateTimeout)
	defer cancel()

	generated, err := s.backend.Generate(ctx, prompt, opts)
	if err != nil {
		log.Printf("Generation error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	promptTokens := CountTokens(prompt)
	completionTokens := CountTokens(generated)
	c.JSON(http.StatusOK, ChatResponse{
		Choices: []Choice{{
			Message:      Message{Role: "assistant", Content: generated},
			FinishReason: "stop",
		}},
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Backend: s.backend.Name(),
	})
}
