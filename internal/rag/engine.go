package rag

import (
	"context"
	"fmt"
	"strings"

	"docquery/internal/contextutil"
	"docquery/internal/llm"
	"docquery/internal/query"
	"docquery/internal/service"
)

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Answer answers a question by retrieving relevant chunks and generating
	// a grounded answer with citations.
	Answer(ctx context.Context, req AskRequest) (AskResponse, error)
}

// Generator dispatches a generation request; satisfied by *llm.Router.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (llm.GenerationResult, error)
}

// Defaults are the engine-level retrieval defaults applied when a request
// leaves the corresponding field zero.
type Defaults struct {
	TopK           int
	MinScore       float32
	SemanticWeight float32
	KeywordWeight  float32
	FallbackRatio  float32
	FallbackFloors []float32
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder  llm.Embedder
	retriever *Retriever
	generator Generator
	defaults  Defaults
}

// NewEngine creates a new RAG engine.
func NewEngine(embedder llm.Embedder, retriever *Retriever, generator Generator, defaults Defaults) Engine {
	if defaults.TopK <= 0 {
		defaults.TopK = 5
	}
	if defaults.MinScore == 0 {
		defaults.MinScore = 0.3
	}
	return &ragEngine{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		defaults:  defaults,
	}
}

// Answer runs the query pipeline: preprocess, embed, retrieve, build the
// grounded prompt, generate, and package the result with citations.
//
// Embedding and retrieval errors propagate; the pipeline cannot proceed
// without them. Generation errors are absorbed: once grounding context is in
// hand, a degraded context-only answer beats a hard failure.
func (e *ragEngine) Answer(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Query) == "" {
		return AskResponse{}, fmt.Errorf("%w: query is empty", service.ErrInvalidQuery)
	}

	pre := query.Preprocess(req.Query)
	logger.InfoContext(ctx, "RAG query started",
		"query", req.Query,
		"keywords", len(pre.Keywords),
		"document_ids", len(req.DocumentIDs),
	)

	embedding, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return AskResponse{}, fmt.Errorf("failed to embed query: %w", err)
	}

	filter := make(map[string]any)
	if len(req.DocumentIDs) > 0 {
		filter["document_id"] = req.DocumentIDs
	}
	if req.UserID != "" {
		filter["user_id"] = req.UserID
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.defaults.TopK
	}
	minScore := req.MinScore
	if minScore == 0 {
		minScore = e.defaults.MinScore
	}

	matches, err := e.retriever.Retrieve(ctx, pre, embedding, RetrieveOptions{
		TopK:           topK,
		MinScore:       minScore,
		Filter:         filter,
		UseHybrid:      len(pre.Keywords) > 0,
		SemanticWeight: e.defaults.SemanticWeight,
		KeywordWeight:  e.defaults.KeywordWeight,
		FallbackRatio:  e.defaults.FallbackRatio,
		FallbackFloors: e.defaults.FallbackFloors,
	})
	if err != nil {
		return AskResponse{}, err
	}

	contextBlock := buildContext(matches)
	prompt := buildPrompt(req.Query, contextBlock)

	answer := contextBlock
	model := ""
	result, err := e.generator.Generate(ctx, prompt, req.Generation)
	if err != nil {
		// All backends down: return the raw context so the caller still
		// receives something grounded.
		logger.WarnContext(ctx, "generation failed, returning raw context", "error", err)
	} else {
		answer = result.Text
		model = result.Backend
	}

	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		text, _ := match.Meta["text"].(string)
		sources = append(sources, Source{
			Text:     text,
			Score:    match.Score,
			Metadata: match.Meta,
		})
	}

	logger.InfoContext(ctx, "RAG query completed",
		"sources", len(sources),
		"model", model,
		"answer_length", len(answer),
	)

	return AskResponse{
		Answer:  answer,
		Sources: sources,
		Context: contextBlock,
		Model:   model,
	}, nil
}
