package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/models"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewOpenAIClient builds a client from the llm config section.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type wireChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *OpenAIClient) buildRequest(msgs []models.Message, opts Options, stream bool) (*wireRequest, error) {
	wm := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Args)
			if err != nil {
				return nil, fmt.Errorf("encoding tool call arguments: %w", err)
			}
			var wtc wireToolCall
			wtc.ID = tc.ID
			wtc.Type = "function"
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = string(args)
			out.ToolCalls = append(out.ToolCalls, wtc)
		}
		wm = append(wm, out)
	}

	req := &wireRequest{
		Model:     c.model,
		Messages:  wm,
		MaxTokens: c.maxTokens,
		Stream:    stream,
	}
	temp := c.temperature
	req.Temperature = &temp
	if opts.Temperature != nil {
		req.Temperature = opts.Temperature
	}
	if opts.TopP != nil {
		req.TopP = opts.TopP
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	for _, t := range opts.Tools {
		var wt wireTool
		wt.Type = "function"
		wt.Function.Name = t.Name
		wt.Function.Description = t.Description
		wt.Function.Parameters = t.Parameters
		req.Tools = append(req.Tools, wt)
	}
	return req, nil
}

func (c *OpenAIClient) post(ctx context.Context, body *wireRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Message: "encoding request", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Message: "building request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Message: "chat completions request failed", Err: err}
	}
	return resp, nil
}

// Invoke implements ChatModel.
func (c *OpenAIClient) Invoke(ctx context.Context, msgs []models.Message, opts Options) (*Response, error) {
	req, err := c.buildRequest(msgs, opts, false)
	if err != nil {
		return nil, &Error{Message: "building request", Err: err}
	}
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "reading response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Message: fmt.Sprintf("chat completions returned %d: %s",
			resp.StatusCode, truncateBody(data))}
	}

	var parsed wireResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &Error{Message: "decoding response", Err: err}
	}
	if parsed.Error != nil {
		return nil, &Error{Message: parsed.Error.Message}
	}
	if len(parsed.Choices) == 0 {
		return nil, &Error{Message: "response contained no choices"}
	}

	choice := parsed.Choices[0]
	out := &Response{Content: choice.Message.Content}
	for _, wtc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if wtc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(wtc.Function.Arguments), &args); err != nil {
				c.logger.Warn("dropping tool call with undecodable arguments",
					zap.String("name", wtc.Function.Name), zap.Error(err))
				continue
			}
		}
		out.ToolCalls = append(out.ToolCalls, models.ToolCall{
			ID:   wtc.ID,
			Name: wtc.Function.Name,
			Args: args,
		})
	}
	return out, nil
}

// Stream implements ChatModel. Tool definitions are not sent on streamed
// requests; streaming is only used for final answer generation.
func (c *OpenAIClient) Stream(ctx context.Context, msgs []models.Message, opts Options) (<-chan Delta, error) {
	opts.Tools = nil
	req, err := c.buildRequest(msgs, opts, true)
	if err != nil {
		return nil, &Error{Message: "building request", Err: err}
	}
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Message: fmt.Sprintf("chat completions returned %d: %s",
			resp.StatusCode, truncateBody(data))}
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}
			var chunk wireChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				c.logger.Warn("skipping malformed stream chunk", zap.Error(err))
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				select {
				case out <- Delta{Content: content}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case out <- Delta{Err: &Error{Message: "reading stream", Err: err}}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func truncateBody(data []byte) string {
	const max = 512
	s := string(data)
	if len(s) > max {
		return s[:max]
	}
	return s
}
