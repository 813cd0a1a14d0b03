package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"docquery/internal/service"
)

// OpenAIBackend generates text against an OpenAI-compatible chat completions
// API. Any server speaking the same wire format (llama.cpp, vLLM, OpenRouter)
// works through this backend.
type OpenAIBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewOpenAIBackend creates a new OpenAI-compatible backend.
func NewOpenAIBackend(baseURL, apiKey, model string) *OpenAIBackend {
	return &OpenAIBackend{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// Name returns "openai".
func (b *OpenAIBackend) Name() string { return "openai" }

// IsConfigured reports whether an API key and base URL are set.
func (b *OpenAIBackend) IsConfigured() bool {
	return b.BaseURL != "" && b.APIKey != ""
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatChoiceMessage represents the message in a chat choice.
type ChatChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      ChatChoiceMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []ChatChoice `json:"choices"`
}

// Generate sends a chat completion request and returns the generated text.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if !b.IsConfigured() {
		return "", fmt.Errorf("%w: openai backend has no credentials", service.ErrProviderUnavailable)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", b.BaseURL)

	payload := ChatRequest{
		Model: b.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", b.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %v", service.ErrProviderError, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: bad status %d: %s", service.ErrProviderError, resp.StatusCode, string(raw))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", service.ErrProviderError, err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", service.ErrProviderError)
	}

	return chatResp.Choices[0].Message.Content, nil
}
