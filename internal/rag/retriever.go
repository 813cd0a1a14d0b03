package rag

import (
	"context"
	"fmt"
	"sort"

	"docquery/internal/contextutil"
	"docquery/internal/query"
	"docquery/internal/service"
	"docquery/internal/vectorstore"
)

const (
	// DefaultSemanticWeight and DefaultKeywordWeight blend vector similarity
	// with lexical keyword overlap; by convention they sum to 1.
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
	// defaultFallbackRatio relaxes minScore on the first cascade step.
	defaultFallbackRatio = 0.5
	// lastResortCount is how many raw candidates are returned when every
	// threshold in the cascade yields nothing.
	lastResortCount = 3
)

// defaultFallbackFloors are the absolute thresholds tried after the relative
// step. Embedding scores for short or abstract queries are often low in
// absolute terms even when the match is the best available; refusing to
// answer would degrade the experience more than a lower-confidence context.
var defaultFallbackFloors = []float32{0.1, 0.05}

// RetrieveOptions tunes one retrieval pass.
type RetrieveOptions struct {
	TopK           int
	MinScore       float32
	Filter         map[string]any
	UseHybrid      bool
	SemanticWeight float32
	KeywordWeight  float32
	FallbackRatio  float32
	FallbackFloors []float32
}

// Retriever performs hybrid (semantic + lexical) retrieval over one vector
// collection with progressive relevance-threshold relaxation.
type Retriever struct {
	store      vectorstore.VectorStore
	collection string
}

// NewRetriever creates a retriever over the given store and collection.
func NewRetriever(store vectorstore.VectorStore, collection string) *Retriever {
	return &Retriever{
		store:      store,
		collection: collection,
	}
}

// Retrieve issues a top-K similarity query and, in hybrid mode, re-ranks the
// candidate set by blending each semantic score with a keyword score computed
// over the candidate's stored chunk text. Hybrid mode strictly re-orders what
// the semantic query already found; it never fetches additional candidates.
// Returns service.ErrNoRelevantContent when the index yields zero candidates.
func (r *Retriever) Retrieve(ctx context.Context, pre query.PreprocessResult, embedding []float32, opts RetrieveOptions) ([]vectorstore.SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	candidates, err := r.store.Search(ctx, r.collection, embedding, topK, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(candidates) == 0 {
		logger.InfoContext(ctx, "vector index returned no candidates")
		return nil, service.ErrNoRelevantContent
	}

	if opts.UseHybrid && len(pre.Keywords) > 0 {
		semanticWeight := opts.SemanticWeight
		keywordWeight := opts.KeywordWeight
		if semanticWeight == 0 && keywordWeight == 0 {
			semanticWeight = DefaultSemanticWeight
			keywordWeight = DefaultKeywordWeight
		}

		for i := range candidates {
			text, _ := candidates[i].Meta["text"].(string)
			keywordScore := float32(query.KeywordScore(pre.Keywords, text))
			candidates[i].Score = semanticWeight*candidates[i].Score + keywordWeight*keywordScore
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	}

	matches := filterByScore(candidates, opts.MinScore)
	if len(matches) > 0 {
		return matches, nil
	}

	// Progressive relevance fallback: relax the threshold step by step so a
	// query with candidates practically always returns some grounding context.
	ratio := opts.FallbackRatio
	if ratio <= 0 {
		ratio = defaultFallbackRatio
	}
	floors := opts.FallbackFloors
	if floors == nil {
		floors = defaultFallbackFloors
	}

	thresholds := append([]float32{opts.MinScore * ratio}, floors...)
	for _, threshold := range thresholds {
		matches = filterByScore(candidates, threshold)
		if len(matches) > 0 {
			logger.InfoContext(ctx, "relaxed relevance threshold", "threshold", threshold, "matches", len(matches))
			return matches, nil
		}
	}

	// Every threshold failed; return the strongest raw candidates anyway.
	n := lastResortCount
	if len(candidates) < n {
		n = len(candidates)
	}
	logger.InfoContext(ctx, "score filtering exhausted, returning top candidates", "count", n)
	return candidates[:n], nil
}

func filterByScore(candidates []vectorstore.SearchResult, minScore float32) []vectorstore.SearchResult {
	var matches []vectorstore.SearchResult
	for _, c := range candidates {
		if c.Score >= minScore {
			matches = append(matches, c)
		}
	}
	return matches
}
