package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestNewOpenAILLM_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config LLMConfig
	}{
		{name: "missing api key", config: LLMConfig{Model: "m"}},
		{name: "missing model", config: LLMConfig{APIKey: "k"}},
		{name: "temperature out of range", config: LLMConfig{APIKey: "k", Model: "m", Temperature: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAILLM(tt.config)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func newCompletionServer(t *testing.T, status int, body string, calls *int32, lastReq *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if lastReq != nil {
			_ = json.NewDecoder(r.Body).Decode(lastReq)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAILLM_Complete(t *testing.T) {
	var calls int32
	var req map[string]any
	srv := newCompletionServer(t, http.StatusOK, `{
		"id": "gen-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "test-model",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  The pool opens at 8 am.  "}}]
	}`, &calls, &req)

	config := DefaultLLMConfig()
	config.APIKey = "test-key"
	config.Model = "test-model"
	config.BaseURL = srv.URL + "/api/v1"

	llm, err := NewOpenAILLM(config)
	if err != nil {
		t.Fatalf("failed to create LLM: %v", err)
	}

	reply, err := llm.Complete(context.Background(), "system rules", "When does the pool open?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, ok := reply.Get()
	if !ok {
		t.Fatal("expected text to be present")
	}
	if text != "The pool opens at 8 am." {
		t.Errorf("expected trimmed text, got %q", text)
	}

	if req["temperature"] != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", req["temperature"])
	}
	messages, _ := req["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "system rules" {
		t.Errorf("unexpected system message %v", first)
	}
}

func TestOpenAILLM_NoChoices(t *testing.T) {
	var calls int32
	srv := newCompletionServer(t, http.StatusOK, `{"id": "gen-2", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`, &calls, nil)

	llm, err := NewOpenAILLM(LLMConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create LLM: %v", err)
	}

	reply, err := llm.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.IsPresent() {
		t.Errorf("expected no text, got %q", reply.OrEmpty())
	}
}

func TestOpenAILLM_ProviderErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := newCompletionServer(t, http.StatusInternalServerError, `{"error": {"message": "upstream unavailable"}}`, &calls, nil)

	llm, err := NewOpenAILLM(LLMConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create LLM: %v", err)
	}

	_, err = llm.Complete(context.Background(), "s", "u")
	if !errors.Is(err, ErrLLMFailed) {
		t.Fatalf("expected ErrLLMFailed, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly one request, got %d", got)
	}
}
