package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/extract"
	"github.com/hyperjump/tanya/internal/ingest"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/pkg/utils"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req models.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body", "invalid_request_error")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
		return
	}

	opts := llm.Options{
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	}
	model := req.Model
	if model == "" {
		model = s.config.LLM.Model
	}

	s.logger.Debug("chat completion request",
		zap.String("model", model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("stream", req.Stream))

	if req.Stream {
		s.streamChatCompletion(w, r, &req, model, opts)
		return
	}

	content, err := s.orchestrator.Run(r.Context(), req.Messages, opts)
	if err != nil {
		s.logger.Error("chat turn failed", zap.Error(err))
		status, message, errType := s.mapTurnError(err)
		s.respondError(w, status, message, errType)
		return
	}

	promptTokens := estimatePromptTokens(req.Messages)
	completionTokens := utils.EstimateTokens(content)
	s.respondJSON(w, http.StatusOK, models.ChatCompletionResponse{
		ID:      completionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []models.Choice{{
			Index:        0,
			Message:      models.Message{Role: models.RoleAssistant, Content: content},
			FinishReason: "stop",
		}},
		Usage: models.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	})
}

// streamChatCompletion emits the turn as server-sent events: one role
// chunk, content deltas as they arrive, one finish chunk, then the [DONE]
// sentinel. Errors become a single error chunk followed by [DONE]; the
// stream always terminates.
func (s *Server) streamChatCompletion(w http.ResponseWriter, r *http.Request, req *models.ChatCompletionRequest, model string, opts llm.Options) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported", "server_error")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id := completionID()
	created := time.Now().Unix()
	chunk := func(delta models.ChunkDelta, finishReason *string) models.ChatCompletionChunk {
		return models.ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []models.ChunkChoice{{Index: 0, Delta: delta, FinishReason: finishReason}},
		}
	}

	writeEvent := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Error("failed to encode stream chunk", zap.Error(err))
			return
		}
		io.WriteString(w, "data: ")
		w.Write(data)
		io.WriteString(w, "\n\n")
		flusher.Flush()
	}
	terminate := func() {
		io.WriteString(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
	failStream := func(err error) {
		s.logger.Error("chat stream failed", zap.Error(err))
		_, message, errType := s.mapTurnError(err)
		writeEvent(models.ErrorResponse{Error: models.APIError{
			Message: message,
			Type:    errType,
		}})
		terminate()
	}

	deltas, err := s.orchestrator.RunStream(r.Context(), req.Messages, opts)
	if err != nil {
		failStream(err)
		return
	}

	writeEvent(chunk(models.ChunkDelta{Role: models.RoleAssistant}, nil))
	for delta := range deltas {
		if delta.Err != nil {
			failStream(delta.Err)
			return
		}
		if delta.Content == "" {
			continue
		}
		writeEvent(chunk(models.ChunkDelta{Content: delta.Content}, nil))
	}

	finish := "stop"
	writeEvent(chunk(models.ChunkDelta{}, &finish))
	terminate()
}

func (s *Server) handleIngestDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form", "invalid_request_error")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided", "invalid_request_error")
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read uploaded file "+h.Filename, "invalid_request_error")
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read uploaded file "+h.Filename, "invalid_request_error")
			return
		}

		contentType := h.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			if byExt := extract.TypeForExtension(filepath.Ext(h.Filename)); byExt != "" {
				contentType = byExt
			}
		}
		files = append(files, ingest.File{
			Filename:    h.Filename,
			ContentType: contentType,
			Content:     content,
		})
	}

	resp := s.pipeline.IngestBatch(r.Context(), files)
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListModels proxies the upstream model listing so OpenAI clients
// pointed at this server can discover the configured backend's models.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		s.config.LLM.BaseURL+"/models", nil)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "internal server error", "server_error")
		return
	}
	if s.config.LLM.APIKey != "" {
		upstream.Header.Set("Authorization", "Bearer "+s.config.LLM.APIKey)
	}

	resp, err := http.DefaultClient.Do(upstream)
	if err != nil {
		s.logger.Error("models listing failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "model listing unavailable", "server_error")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Error("failed to relay models listing", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func completionID() string {
	return "chatcmpl-" + uuid.NewString()
}

func estimatePromptTokens(msgs []models.Message) int {
	total := 0
	for _, m := range msgs {
		total += utils.EstimateTokens(m.Content)
	}
	return total
}
