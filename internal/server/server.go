// Package server provides the OpenAI-compatible HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/agent"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/ingest"
)

// Server is the HTTP server for the chat and document APIs.
type Server struct {
	orchestrator *agent.Orchestrator
	pipeline     *ingest.Pipeline
	config       *config.Config
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	orchestrator *agent.Orchestrator,
	pipeline *ingest.Pipeline,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		pipeline:     pipeline,
		config:       cfg,
		logger:       logger,
	}
}

// Handler builds the chi router. Exposed separately from Start so tests
// can drive the full middleware stack without a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		// No timeout on chat completions: responses stream for as long
		// as the model generates.
		r.Post("/chat/completions", s.handleChatCompletions)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/documents", s.handleIngestDocuments)
			r.Get("/models", s.handleListModels)
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		// No write timeout: chat completions stream for as long as the
		// model generates.
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
