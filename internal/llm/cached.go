package llm

import (
	"context"
	"errors"
	"log/slog"

	"docquery/internal/cache"
	"docquery/internal/contextutil"
)

// CachedEmbedder decorates an Embedder with a lookup cache keyed by exact
// text: check cache, on miss call the provider, then write through. Cache
// failures degrade to provider calls and are never surfaced to callers.
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Cache
	logger *slog.Logger
}

// NewCachedEmbedder wraps inner with the given cache.
func NewCachedEmbedder(inner Embedder, c cache.Cache) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		cache:  c,
		logger: slog.Default(),
	}
}

// Embed returns the cached vector for text, or computes and caches it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vec, err := e.cache.Get(ctx, text)
	if err == nil {
		logger.DebugContext(ctx, "embedding cache hit")
		return vec, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.WarnContext(ctx, "embedding cache read failed", "error", err)
	}

	vec, err = e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Put(ctx, text, vec); err != nil {
		logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return vec, nil
}

// EmbedBatch resolves each text from the cache where possible and issues a
// single batched provider request for the misses.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	result := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		vec, err := e.cache.Get(ctx, text)
		if err == nil {
			result[i] = vec
			continue
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WarnContext(ctx, "embedding cache read failed", "error", err)
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		logger.DebugContext(ctx, "embedding cache hit for whole batch", "count", len(texts))
		return result, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vec := range vecs {
		result[missingIdx[j]] = vec
		if err := e.cache.Put(ctx, missing[j], vec); err != nil {
			logger.WarnContext(ctx, "embedding cache write failed", "error", err)
		}
	}

	logger.DebugContext(ctx, "embedded batch", "total", len(texts), "cache_hits", len(texts)-len(missing))
	return result, nil
}
