// Package llm provides the chat model client used for tool-call decisions,
// grounded answer generation, and document classification.
package llm

import (
	"context"

	"github.com/hyperjump/tanya/internal/models"
)

// ToolDefinition describes a callable tool exposed to the model through
// its native function-calling channel.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the arguments.
	Parameters map[string]any
}

// Options control a single model invocation. Zero-valued sampling fields
// fall back to the client's configured defaults.
type Options struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   int
	Tools       []ToolDefinition
}

// WithoutTools returns a copy of o with no tools bound.
func (o Options) WithoutTools() Options {
	o.Tools = nil
	return o
}

// Response is the model's reply for one turn. ToolCalls is non-empty when
// the model used the structured function-calling channel.
type Response struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Delta is one increment of a streamed response. Err, when set, is the
// terminal event of the stream.
type Delta struct {
	Content string
	Err     error
}

// ChatModel is a text-in/text-out chat service.
type ChatModel interface {
	// Invoke runs one synchronous completion over the messages.
	Invoke(ctx context.Context, msgs []models.Message, opts Options) (*Response, error)
	// Stream runs one completion and delivers content increments on the
	// returned channel. The channel is always closed; a Delta with Err set
	// is the last element on failure.
	Stream(ctx context.Context, msgs []models.Message, opts Options) (<-chan Delta, error)
}

// Error is a typed failure from the chat model service.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "llm: " + e.Message + ": " + e.Err.Error()
	}
	return "llm: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }
