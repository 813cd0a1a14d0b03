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

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "the prompt" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxTokens != 128 {
			t.Errorf("max_tokens = %d, want 128", req.MaxTokens)
		}

		_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []ChatChoice{
			{Message: ChatChoiceMessage{Role: "assistant", Content: "the answer"}},
		}})
	}))
	defer server.Close()

	backend := NewOpenAIBackend(server.URL, "sk-test", "gpt-4o-mini")
	got, err := backend.Generate(context.Background(), "the prompt", GenerateParams{MaxTokens: 128})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("Generate() = %q, want %q", got, "the answer")
	}
}

func TestOpenAIGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal", http.StatusInternalServerError)
			},
		},
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{})
			},
		},
		{
			name: "empty content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []ChatChoice{{}}})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			backend := NewOpenAIBackend(server.URL, "sk-test", "gpt-4o-mini")
			_, err := backend.Generate(context.Background(), "prompt", GenerateParams{})
			if !errors.Is(err, service.ErrProviderError) {
				t.Errorf("Generate() error = %v, want ErrProviderError", err)
			}
		})
	}
}

func TestOpenAIIsConfigured(t *testing.T) {
	if NewOpenAIBackend("http://x", "key", "m").IsConfigured() != true {
		t.Error("backend with base URL and key should be configured")
	}
	if NewOpenAIBackend("http://x", "", "m").IsConfigured() {
		t.Error("backend without key should not be configured")
	}
	if NewOpenAIBackend("", "key", "m").IsConfigured() {
		t.Error("backend without base URL should not be configured")
	}
}
