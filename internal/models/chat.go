// Package models defines core data structures for conversations, retrieved
// documents, and the OpenAI-compatible API surface.
package models

import "fmt"

// Message roles. Order in a conversation is causal history and must be
// preserved end to end.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single conversation message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a model-issued request to run a named tool. Created by the
// LLM turn or synthesized by the fallback parser; never mutated after
// creation.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// QueryArg returns the "query" argument, or an error when missing/empty.
func (c *ToolCall) QueryArg() (string, error) {
	v, ok := c.Args["query"]
	if !ok {
		return "", fmt.Errorf("tool call %s: missing query argument", c.Name)
	}
	q, ok := v.(string)
	if !ok || q == "" {
		return "", fmt.Errorf("tool call %s: query argument must be a non-empty string", c.Name)
	}
	return q, nil
}

// TagsArg returns the "tags" argument as a string slice. Absent or
// malformed tags are treated as no filter.
func (c *ToolCall) TagsArg() []string {
	v, ok := c.Args["tags"]
	if !ok {
		return nil
	}
	switch tags := v.(type) {
	case []string:
		return tags
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ChatCompletionRequest is the OpenAI-compatible chat request body.
// Sampling parameters are forwarded to the LLM unchanged.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	User        string    `json:"user,omitempty"`
}

// Validate checks the request has at least one message with a role.
func (r *ChatCompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}
	for i, m := range r.Messages {
		if m.Role == "" {
			return fmt.Errorf("message %d: role is required", i)
		}
	}
	return nil
}

// Usage reports estimated token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatCompletionResponse is the non-streaming completion object.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// ChunkDelta is the incremental payload of a streaming chunk. Role is set
// on the first chunk only; Content on delta chunks.
type ChunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChunkChoice is a single choice in a streaming chunk.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChatCompletionChunk is one streamed SSE chunk. Chunks for one response
// are emitted in generation order and terminate with exactly one
// finish-reason chunk followed by the stream-end sentinel.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// APIError is the structured error body returned to clients.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse wraps an APIError for transport.
type ErrorResponse struct {
	Error APIError `json:"error"`
}
