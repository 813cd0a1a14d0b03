package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"docquery/internal/service"
)

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "ak-test" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("anthropic-version = %q", got)
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// max_tokens is mandatory; the backend fills a default for zero.
		if req.MaxTokens != defaultAnthropicMaxTokens {
			t.Errorf("max_tokens = %d, want default %d", req.MaxTokens, defaultAnthropicMaxTokens)
		}

		_ = json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{
			{Type: "text", Text: "claude says hi"},
		}})
	}))
	defer server.Close()

	backend := NewAnthropicBackend("ak-test", "claude-3-5-haiku-latest")
	backend.BaseURL = server.URL

	got, err := backend.Generate(context.Background(), "prompt", GenerateParams{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "claude says hi" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestAnthropicGenerate_SkipsNonTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anthropicResponse{Content: []anthropicContent{
			{Type: "thinking", Text: "internal"},
			{Type: "text", Text: "visible"},
		}})
	}))
	defer server.Close()

	backend := NewAnthropicBackend("ak-test", "model")
	backend.BaseURL = server.URL

	got, err := backend.Generate(context.Background(), "prompt", GenerateParams{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "visible" {
		t.Errorf("Generate() = %q, want first text block", got)
	}
}

func TestAnthropicGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"type": "overloaded_error", "message": "try later"},
		})
	}))
	defer server.Close()

	backend := NewAnthropicBackend("ak-test", "model")
	backend.BaseURL = server.URL

	_, err := backend.Generate(context.Background(), "prompt", GenerateParams{})
	if !errors.Is(err, service.ErrProviderError) {
		t.Errorf("Generate() error = %v, want ErrProviderError", err)
	}
}

func TestAnthropicIsConfigured(t *testing.T) {
	if !NewAnthropicBackend("key", "m").IsConfigured() {
		t.Error("backend with key should be configured")
	}
	if NewAnthropicBackend("", "m").IsConfigured() {
		t.Error("backend without key should not be configured")
	}
}
