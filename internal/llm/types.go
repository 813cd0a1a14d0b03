package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_backend.go -package=mocks docquery/internal/llm GenerationBackend,Embedder

import "context"

// GenerateParams are the per-request generation knobs passed to a backend.
type GenerateParams struct {
	Temperature float32
	MaxTokens   int
}

// GenerationBackend is one text-generation provider. The router holds an
// ordered list of these; unconfigured backends are skipped during fallback.
type GenerationBackend interface {
	// Name returns the backend's stable identifier (e.g. "openai").
	Name() string

	// IsConfigured reports whether the backend has credentials available.
	IsConfigured() bool

	// Generate produces text for the prompt, or an error on any failure.
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
}

// Strategy values for GenerateOptions. Any other non-empty value names a
// single backend to use directly.
const StrategyFallback = "fallback"

// GenerateOptions selects how the router dispatches a generation request.
type GenerateOptions struct {
	// Strategy is "fallback" (default) or a backend name.
	Strategy string
	// PreferredModel, when set, restricts the request to that backend and
	// propagates its failure without fallback.
	PreferredModel string
	Temperature    float32
	MaxTokens      int
}

// GenerationResult is a successful generation and the backend that produced it.
type GenerationResult struct {
	Text    string
	Backend string
}

// Embedder produces fixed-length embedding vectors for texts.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text in a single request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
