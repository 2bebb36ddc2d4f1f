// Package server exposes the agent over HTTP: a REST chat endpoint, a
// WebSocket stream, health and info probes, and an embedded browser UI.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoint
//   - info.go: agent info endpoint
//   - chat.go: REST chat endpoint
//   - ws.go: WebSocket chat stream
//   - index.go: embedded browser chat UI
//   - response.go: JSON response helpers
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nvaldez/news-agent-go/agent"
	"github.com/nvaldez/news-agent-go/newsapi"
	"github.com/nvaldez/news-agent-go/tools/registry"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads on new connections.
	ReadHeaderTimeout = 10 * time.Second

	// IdleTimeout is the keep-alive timeout between requests.
	IdleTimeout = 120 * time.Second
)

// Agent is the capability the transport layer needs from the reasoning
// loop. Satisfied by *agent.Agent.
type Agent interface {
	Run(ctx context.Context, message string) (*agent.Response, error)
	RunStream(ctx context.Context, message string) <-chan agent.Event
	Info() agent.Info
	Tools() []registry.Descriptor
}

// Server is the HTTP server for the chat gateway. A nil agent means the
// service is up but not ready; endpoints answer accordingly.
type Server struct {
	mux         *http.ServeMux
	agent       Agent
	logger      *slog.Logger
	tokenStatus func() newsapi.TokenInfo
}

// New creates a server with all routes registered.
func New(a Agent, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:    http.NewServeMux(),
		agent:  a,
		logger: logger,
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /agent-info", s.handleAgentInfo)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	return s
}

// WithTokenStatus registers a probe for the news token cache state. When
// set, its result is included in the agent-info response.
func (s *Server) WithTokenStatus(fn func() newsapi.TokenInfo) *Server {
	s.tokenStatus = fn
	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, s.recoveryMiddleware, s.loggingMiddleware)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	// No ReadTimeout/WriteTimeout here; /ws connections stay open
	// indefinitely.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
