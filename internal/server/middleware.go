package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/retrieval"
)

// authMiddleware enforces bearer authentication on the API routes when an
// API key is configured. The health endpoint stays open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.config.Server.APIKey
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+key {
			s.respondJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: models.APIError{
				Message: "invalid or missing API key",
				Type:    "invalid_request_error",
				Code:    "invalid_api_key",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, errType string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: models.APIError{
		Message: message,
		Type:    errType,
	}})
}

// mapTurnError converts orchestration failures to a status and error type.
// External service failures surface as 502; anything unexpected is a 500
// with a generic message so internals do not leak.
func (s *Server) mapTurnError(err error) (int, string, string) {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return http.StatusBadGateway, "language model service failed", "server_error"
	}
	var retrievalErr *retrieval.Error
	if errors.As(err, &retrievalErr) {
		return http.StatusBadGateway, "document retrieval failed", "server_error"
	}
	return http.StatusInternalServerError, "internal server error", "server_error"
}
