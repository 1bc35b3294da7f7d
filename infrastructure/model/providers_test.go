package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProviderTimeoutConfig(t *testing.T) {
	cfg := Config{APIKey: "sk-test", Timeout: 5 * time.Second}

	if got := NewOpenAIProvider(cfg).client.Timeout; got != 5*time.Second {
		t.Errorf("openai timeout = %v, want 5s", got)
	}
	if got := NewAnthropicProvider(cfg).client.Timeout; got != 5*time.Second {
		t.Errorf("anthropic timeout = %v, want 5s", got)
	}
	if got := NewOllamaProvider(cfg).client.Timeout; got != 5*time.Second {
		t.Errorf("ollama timeout = %v, want 5s", got)
	}
}

func TestProviderTimeoutDefaults(t *testing.T) {
	cfg := Config{APIKey: "sk-test"}

	if got := NewOpenAIProvider(cfg).client.Timeout; got != 120*time.Second {
		t.Errorf("openai default timeout = %v, want 120s", got)
	}
	if got := NewOllamaProvider(cfg).client.Timeout; got != 300*time.Second {
		t.Errorf("ollama default timeout = %v, want 300s", got)
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var gotReq openAIChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "the plan"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider(Config{APIKey: "sk-test", BaseURL: server.URL, Model: "gpt-4o"})
	resp, err := p.Generate(context.Background(), Request{
		Prompt:        "solve it",
		SystemMessage: "be brief",
		Temperature:   0.3,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != "the plan" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "solve it" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Temperature != 0.3 {
		t.Errorf("temperature = %v", gotReq.Temperature)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(Config{APIKey: "sk-test", BaseURL: server.URL})
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusTooManyRequests || apiErr.Type != "rate_limit_error" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !errors.Is(err, ErrGeneration) {
		t.Error("APIError does not match ErrGeneration")
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	p := NewOpenAIProvider(Config{BaseURL: server.URL})
	if _, err := p.Generate(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrGeneration) {
		t.Errorf("err = %v, want wrapped ErrGeneration", err)
	}
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if key := r.Header.Get("x-api-key"); key != "sk-test" {
			t.Errorf("x-api-key = %q", key)
		}
		if v := r.Header.Get("anthropic-version"); v != anthropicVersion {
			t.Errorf("anthropic-version = %q", v)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg-1",
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]string{
				{"type": "text", "text": "part one "},
				{"type": "text", "text": "part two"},
			},
			"usage": map[string]int{"input_tokens": 12, "output_tokens": 8},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIKey: "sk-test", BaseURL: server.URL})
	resp, err := p.Generate(context.Background(), Request{Prompt: "solve it", SystemMessage: "be brief"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != "part one part two" {
		t.Errorf("Text = %q, want concatenated blocks", resp.Text)
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", resp.Usage.TotalTokens)
	}
	if gotReq.System != "be brief" {
		t.Errorf("system = %q", gotReq.System)
	}
	// The messages API requires max_tokens even when the caller sets none.
	if gotReq.MaxTokens == 0 {
		t.Error("max_tokens not defaulted")
	}
}

func TestAnthropicProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "authentication_error", "message": "invalid api key"},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider(Config{APIKey: "bad", BaseURL: server.URL})
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Provider != "anthropic" || apiErr.Type != "authentication_error" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestOllamaProvider_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3",
			"message":           map[string]string{"role": "assistant", "content": "local plan"},
			"done":              true,
			"prompt_eval_count": 7,
			"eval_count":        3,
		})
	}))
	defer server.Close()

	p := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3"})
	resp, err := p.Generate(context.Background(), Request{Prompt: "solve it"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != "local plan" {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d, want 10", resp.Usage.TotalTokens)
	}
}

func TestOllamaProvider_ErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "model not found"})
	}))
	defer server.Close()

	p := NewOllamaProvider(Config{BaseURL: server.URL})
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != "model not found" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestScriptedProvider(t *testing.T) {
	p := NewScriptedProvider(
		ScriptStep{ExpectContains: "first", Response: "one"},
		ScriptStep{Response: "two"},
	)

	resp, err := p.Generate(context.Background(), Request{Prompt: "the first prompt"})
	if err != nil || resp.Text != "one" {
		t.Fatalf("step 1 = (%q, %v)", resp.Text, err)
	}
	if _, err := p.Generate(context.Background(), Request{Prompt: "anything"}); err != nil {
		t.Fatalf("step 2 failed: %v", err)
	}
	if p.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", p.Remaining())
	}

	// Exhausted scripts fail loudly.
	if _, err := p.Generate(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrGeneration) {
		t.Errorf("exhausted err = %v, want ErrGeneration", err)
	}
}

func TestScriptedProviderMismatch(t *testing.T) {
	p := NewScriptedProvider(ScriptStep{ExpectContains: "expected text", Response: "one"})
	if _, err := p.Generate(context.Background(), Request{Prompt: "something else"}); !errors.Is(err, ErrGeneration) {
		t.Errorf("mismatch err = %v, want ErrGeneration", err)
	}
}

func TestMockProviderSequence(t *testing.T) {
	p := NewMockProvider("a", "b")

	for _, want := range []string{"a", "b", "b", "b"} {
		resp, err := p.Generate(context.Background(), Request{Prompt: "x"})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if resp.Text != want {
			t.Errorf("Text = %q, want %q", resp.Text, want)
		}
	}
	if p.CallCount() != 4 {
		t.Errorf("CallCount = %d, want 4", p.CallCount())
	}

	p.Reset()
	resp, _ := p.Generate(context.Background(), Request{Prompt: "x"})
	if resp.Text != "a" {
		t.Errorf("after Reset Text = %q, want a", resp.Text)
	}
}
