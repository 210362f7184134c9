package llm

import (
	"context"

	"github.com/hyperjump/tanya/internal/models"
)

// MockChatModel returns scripted responses in order. Useful in tests that
// need deterministic model behavior.
type MockChatModel struct {
	Responses []Response
	Calls     [][]models.Message
	Opts      []Options
	Err       error

	next int
}

func (m *MockChatModel) Invoke(_ context.Context, msgs []models.Message, opts Options) (*Response, error) {
	m.Calls = append(m.Calls, msgs)
	m.Opts = append(m.Opts, opts)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.next >= len(m.Responses) {
		return &Response{}, nil
	}
	resp := m.Responses[m.next]
	m.next++
	return &resp, nil
}

func (m *MockChatModel) Stream(ctx context.Context, msgs []models.Message, opts Options) (<-chan Delta, error) {
	resp, err := m.Invoke(ctx, msgs, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan Delta, len(resp.Content))
	// Emit word-sized deltas so callers exercise multi-chunk paths.
	for _, word := range splitKeepSpace(resp.Content) {
		out <- Delta{Content: word}
	}
	close(out)
	return out, nil
}

func splitKeepSpace(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			parts = append(parts, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
