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

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	// The messages API requires max_tokens; used when the caller passes 0.
	defaultAnthropicMaxTokens = 1024
)

// AnthropicBackend generates text via the Anthropic messages API. The wire
// format differs from OpenAI's: auth uses the x-api-key header and content
// arrives as a list of typed blocks.
type AnthropicBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewAnthropicBackend creates a new Anthropic backend.
func NewAnthropicBackend(apiKey, model string) *AnthropicBackend {
	return &AnthropicBackend{
		BaseURL: defaultAnthropicBaseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// Name returns "anthropic".
func (b *AnthropicBackend) Name() string { return "anthropic" }

// IsConfigured reports whether an API key is set.
func (b *AnthropicBackend) IsConfigured() bool {
	return b.APIKey != ""
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends a messages request and returns the first text block.
func (b *AnthropicBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if !b.IsConfigured() {
		return "", fmt.Errorf("%w: anthropic backend has no credentials", service.ErrProviderUnavailable)
	}

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	payload := anthropicRequest{
		Model:       b.Model,
		MaxTokens:   maxTokens,
		Temperature: params.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", b.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", b.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
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

	var msgResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", service.ErrProviderError, err)
	}
	if msgResp.Error != nil {
		return "", fmt.Errorf("%w: %s: %s", service.ErrProviderError, msgResp.Error.Type, msgResp.Error.Message)
	}

	for _, block := range msgResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", service.ErrProviderError)
}
