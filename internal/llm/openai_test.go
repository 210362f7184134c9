package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*OpenAIClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOpenAIClient(config.LLMConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Model:          "test-model",
		Temperature:    0.1,
		MaxTokens:      128,
		TimeoutSeconds: 5,
	}, zap.NewNop())
	return client, srv
}

func TestInvokeContent(t *testing.T) {
	var gotAuth string
	var gotReq wireRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"},"finish_reason":"stop"}]}`)
	})

	resp, err := client.Invoke(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hi"},
	}, Options{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("content = %q, want %q", resp.Content, "hello")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.1 {
		t.Errorf("temperature = %v, want default 0.1", gotReq.Temperature)
	}
}

func TestInvokeToolCalls(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"retrieve_university_data",
			 "arguments":"{\"query\":\"jadwal kuliah\",\"tags\":[\"schedules\"]}"}}
		]},"finish_reason":"tool_calls"}]}`)
	})

	resp, err := client.Invoke(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "kapan jadwal kuliah?"},
	}, Options{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.Name != "retrieve_university_data" {
		t.Errorf("tool name = %q", tc.Name)
	}
	query, err := tc.QueryArg()
	if err != nil {
		t.Fatalf("QueryArg: %v", err)
	}
	if query != "jadwal kuliah" {
		t.Errorf("query = %q", query)
	}
	if tags := tc.TagsArg(); len(tags) != 1 || tags[0] != "schedules" {
		t.Errorf("tags = %v", tags)
	}
}

func TestInvokeDropsUndecodableToolCall(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"fallback","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"retrieve_university_data",
			 "arguments":"{not json"}}
		]},"finish_reason":"tool_calls"}]}`)
	})

	resp, err := client.Invoke(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hi"},
	}, Options{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(resp.ToolCalls) != 0 {
		t.Errorf("tool calls = %d, want 0", len(resp.ToolCalls))
	}
	if resp.Content != "fallback" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestInvokeServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Invoke(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hi"},
	}, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(llmErr.Message, "429") {
		t.Errorf("message = %q, want status code mention", llmErr.Message)
	}
}

func TestStream(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if !req.Stream {
			t.Error("expected stream=true")
		}
		if len(req.Tools) != 0 {
			t.Error("streamed request should not carry tools")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hal\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"o!\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	ch, err := client.Stream(context.Background(), []models.Message{
		{Role: models.RoleUser, Content: "hi"},
	}, Options{Tools: []ToolDefinition{{Name: "retrieve_university_data"}}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got strings.Builder
	for delta := range ch {
		if delta.Err != nil {
			t.Fatalf("stream error: %v", delta.Err)
		}
		got.WriteString(delta.Content)
	}
	if got.String() != "Halo!" {
		t.Errorf("streamed content = %q, want %q", got.String(), "Halo!")
	}
}

func TestMockStreamMatchesInvoke(t *testing.T) {
	mock := &MockChatModel{Responses: []Response{
		{Content: "satu dua tiga"},
		{Content: "satu dua tiga"},
	}}

	resp, err := mock.Invoke(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	ch, err := mock.Stream(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var got strings.Builder
	for delta := range ch {
		got.WriteString(delta.Content)
	}
	if got.String() != resp.Content {
		t.Errorf("streamed = %q, invoked = %q", got.String(), resp.Content)
	}
}
