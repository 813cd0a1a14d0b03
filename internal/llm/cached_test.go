package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/mock/gomock"

	"docquery/internal/cache"
	cache_mocks "docquery/internal/cache/mocks"
)

// countingEmbedder records how many provider calls the cache let through.
type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchTexts []string
	err        error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchTexts = append([]string(nil), texts...)
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func TestCachedEmbed(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := NewCachedEmbedder(inner, cache.NewMemoryCache())

	first, err := embedder.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := embedder.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if inner.embedCalls != 1 {
		t.Errorf("provider called %d times, want 1", inner.embedCalls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}
}

func TestCachedEmbed_ProviderErrorPropagates(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("provider down")}
	embedder := NewCachedEmbedder(inner, cache.NewMemoryCache())

	if _, err := embedder.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("Embed() expected error")
	}
}

func TestCachedEmbedBatch_PartialHits(t *testing.T) {
	mem := cache.NewMemoryCache()
	inner := &countingEmbedder{}
	embedder := NewCachedEmbedder(inner, mem)

	// Warm the cache with one of three texts.
	if err := mem.Put(context.Background(), "warm", []float32{42}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	vecs, err := embedder.EmbedBatch(context.Background(), []string{"cold1", "warm", "cold2"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}

	if inner.batchCalls != 1 {
		t.Fatalf("provider batch calls = %d, want 1", inner.batchCalls)
	}
	if !reflect.DeepEqual(inner.batchTexts, []string{"cold1", "cold2"}) {
		t.Errorf("provider received %v, want only misses", inner.batchTexts)
	}
	if vecs[1][0] != 42 {
		t.Errorf("cached position lost: %v", vecs[1])
	}
	if vecs[0] == nil || vecs[2] == nil {
		t.Errorf("miss positions not filled: %v", vecs)
	}
}

func TestCachedEmbedBatch_AllHitsSkipProvider(t *testing.T) {
	mem := cache.NewMemoryCache()
	inner := &countingEmbedder{}
	embedder := NewCachedEmbedder(inner, mem)

	ctx := context.Background()
	_ = mem.Put(ctx, "a", []float32{1})
	_ = mem.Put(ctx, "b", []float32{2})

	vecs, err := embedder.EmbedBatch(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if inner.batchCalls != 0 {
		t.Errorf("provider called %d times for fully cached batch", inner.batchCalls)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("vectors = %v", vecs)
	}
}

func TestCachedEmbed_CacheFailureDegradesToProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := cache_mocks.NewMockCache(ctrl)
	c.EXPECT().
		Get(gomock.Any(), "hello").
		Return(nil, errors.New("redis down"))
	c.EXPECT().
		Put(gomock.Any(), "hello", gomock.Any()).
		Return(errors.New("redis down"))

	inner := &countingEmbedder{}
	embedder := NewCachedEmbedder(inner, c)

	vec, err := embedder.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) == 0 {
		t.Error("no vector returned")
	}
	if inner.embedCalls != 1 {
		t.Errorf("provider called %d times, want 1", inner.embedCalls)
	}
}

func TestCachedEmbedBatch_WritesThrough(t *testing.T) {
	mem := cache.NewMemoryCache()
	embedder := NewCachedEmbedder(&countingEmbedder{}, mem)

	ctx := context.Background()
	if _, err := embedder.EmbedBatch(ctx, []string{"text"}); err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if _, err := mem.Get(ctx, "text"); err != nil {
		t.Errorf("vector not written through to cache: %v", err)
	}
}
