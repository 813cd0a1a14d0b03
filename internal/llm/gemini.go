package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"docquery/internal/service"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiBackend generates text via the Google Gemini generateContent API.
type GeminiBackend struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewGeminiBackend creates a new Gemini backend.
func NewGeminiBackend(apiKey, model string) *GeminiBackend {
	return &GeminiBackend{
		BaseURL: defaultGeminiBaseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// Name returns "gemini".
func (b *GeminiBackend) Name() string { return "gemini" }

// IsConfigured reports whether an API key is set.
func (b *GeminiBackend) IsConfigured() bool {
	return b.APIKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends a generateContent request and returns the concatenated text
// parts of the first candidate.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	if !b.IsConfigured() {
		return "", fmt.Errorf("%w: gemini backend has no credentials", service.ErrProviderUnavailable)
	}

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if params.Temperature > 0 || params.MaxTokens > 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: params.MaxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", b.BaseURL, b.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", b.APIKey)
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

	var genResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", service.ErrProviderError, err)
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", service.ErrProviderError)
	}

	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: empty candidate text", service.ErrProviderError)
	}
	return sb.String(), nil
}
