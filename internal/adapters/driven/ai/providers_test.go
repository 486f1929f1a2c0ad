package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

func jsonHandler(t *testing.T, wantPath string, status int, body any, check func(r *http.Request)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("expected path %s, got %s", wantPath, r.URL.Path)
		}
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/chat/completions", http.StatusOK,
		map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"summary":["ok"]}`}},
			},
		},
		func(r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
			}
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req.Model != domain.DefaultOpenAIModel {
				t.Errorf("expected default model, got %s", req.Model)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "user prompt" {
				t.Errorf("unexpected messages: %+v", req.Messages)
			}
			if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
				t.Error("expected json_object response format")
			}
		}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close() //nolint:errcheck

	out, err := p.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"summary":["ok"]}` {
		t.Errorf("unexpected content %q", out)
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider("", "", ""); err == nil {
		t.Error("expected error without api key")
	}
}

func TestOpenAIProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/chat/completions", http.StatusTooManyRequests,
		map[string]any{"error": map[string]string{"message": "quota exceeded", "type": "insufficient_quota"}}, nil))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", "", server.URL)
	_, err := p.Complete(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/chat/completions", http.StatusInternalServerError,
		map[string]any{"error": map[string]string{"message": "boom"}}, nil))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", "", server.URL)
	_, err := p.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("did not expect ErrRateLimited")
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/chat/completions", http.StatusOK, map[string]any{"choices": []any{}}, nil))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", "", server.URL)
	if _, err := p.Complete(context.Background(), "s", "u"); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIProvider_Ping(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/models", http.StatusOK, map[string]any{"data": []any{}}, func(r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", "", server.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/v1/messages", http.StatusOK,
		map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": `{"summary":`},
				{"type": "text", "text": `["ok"]}`},
			},
			"stop_reason": "end_turn",
		},
		func(r *http.Request) {
			if r.Header.Get("x-api-key") != "test-key" {
				t.Errorf("expected x-api-key header, got %q", r.Header.Get("x-api-key"))
			}
			if r.Header.Get("anthropic-version") != anthropicVersion {
				t.Errorf("expected anthropic-version header, got %q", r.Header.Get("anthropic-version"))
			}
			var req messagesRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req.System != "system prompt" {
				t.Errorf("expected system prompt, got %q", req.System)
			}
			if req.MaxTokens != anthropicMaxTokens {
				t.Errorf("expected max tokens %d, got %d", anthropicMaxTokens, req.MaxTokens)
			}
		}))
	defer server.Close()

	p, err := NewAnthropicProvider("test-key", "", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := p.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"summary":["ok"]}` {
		t.Errorf("unexpected content %q", out)
	}
}

func TestAnthropicProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/v1/messages", http.StatusTooManyRequests,
		map[string]any{"type": "error", "error": map[string]string{"type": "rate_limit_error", "message": "slow down"}}, nil))
	defer server.Close()

	p, _ := NewAnthropicProvider("test-key", "", server.URL)
	_, err := p.Complete(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAnthropicProvider_NoText(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/v1/messages", http.StatusOK,
		map[string]any{"content": []map[string]string{{"type": "tool_use"}}}, nil))
	defer server.Close()

	p, _ := NewAnthropicProvider("test-key", "", server.URL)
	if _, err := p.Complete(context.Background(), "s", "u"); err == nil {
		t.Error("expected error without text blocks")
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/api/chat", http.StatusOK,
		map[string]any{"message": map[string]string{"role": "assistant", "content": `{"retention":"1 year"}`}, "done": true},
		func(r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("did not expect an authorization header")
			}
			var req ollamaChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req.Stream {
				t.Error("expected non-streaming request")
			}
			if req.Format != "json" {
				t.Errorf("expected json format, got %q", req.Format)
			}
		}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL, "")
	out, err := p.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"retention":"1 year"}` {
		t.Errorf("unexpected content %q", out)
	}
}

func TestOllamaProvider_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/api/chat", http.StatusNotFound,
		map[string]string{"error": "model 'llama3.1' not found"}, nil))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL, "")
	_, err := p.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOllamaProvider_Ping(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, "/api/tags", http.StatusOK, map[string]any{"models": []any{}}, nil))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL, "")
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}

func TestPlaceholderProvider_Complete(t *testing.T) {
	p := NewPlaceholderProvider()

	out, err := p.Complete(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("placeholder output is not valid JSON: %v", err)
	}
	if !result.Placeholder {
		t.Error("expected placeholder flag")
	}
	if result.Score.Value != 50 {
		t.Errorf("expected neutral score 50, got %d", result.Score.Value)
	}
}

func TestPlaceholderProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPlaceholderProvider().Complete(ctx, "s", "u"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
