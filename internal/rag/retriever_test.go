package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"docquery/internal/query"
	"docquery/internal/service"
	"docquery/internal/vectorstore"
)

// fakeVectorStore returns canned search results for retriever tests.
type fakeVectorStore struct {
	results   []vectorstore.SearchResult
	searchErr error

	lastK      int
	lastFilter map[string]any
}

func (f *fakeVectorStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, q []float32, k int, filters map[string]any) ([]vectorstore.SearchResult, error) {
	f.lastK = k
	f.lastFilter = filters
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeVectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	return nil
}

func (f *fakeVectorStore) DeleteByFilter(ctx context.Context, collection string, filters map[string]any) error {
	return nil
}

func (f *fakeVectorStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return true, nil
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	return nil
}

func results(scores ...float32) []vectorstore.SearchResult {
	out := make([]vectorstore.SearchResult, len(scores))
	for i, s := range scores {
		out[i] = vectorstore.SearchResult{
			PointID: fmt.Sprintf("p%d", i),
			Score:   s,
			Meta:    map[string]any{"text": fmt.Sprintf("chunk %d", i)},
		}
	}
	return out
}

func TestRetrieve_NoCandidates(t *testing.T) {
	store := &fakeVectorStore{results: nil}
	r := NewRetriever(store, "docs")

	_, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{TopK: 5, MinScore: 0.3})
	if !errors.Is(err, service.ErrNoRelevantContent) {
		t.Errorf("Retrieve() error = %v, want ErrNoRelevantContent", err)
	}
}

func TestRetrieve_SearchError(t *testing.T) {
	store := &fakeVectorStore{searchErr: errors.New("connection refused")}
	r := NewRetriever(store, "docs")

	_, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{TopK: 5})
	if err == nil {
		t.Fatal("Retrieve() expected error")
	}
	if errors.Is(err, service.ErrNoRelevantContent) {
		t.Error("search failure must not be reported as no relevant content")
	}
}

func TestRetrieve_ScoreFilter(t *testing.T) {
	store := &fakeVectorStore{results: results(0.85, 0.2)}
	r := NewRetriever(store, "docs")

	matches, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{TopK: 5, MinScore: 0.5})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Retrieve() = %d matches, want 1", len(matches))
	}
	if matches[0].Score != 0.85 {
		t.Errorf("match score = %v, want 0.85", matches[0].Score)
	}
}

func TestRetrieve_FallbackCascade(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float32
		minScore float32
		wantLen  int
	}{
		{
			// 0.2 < 0.3 but passes the relative step 0.3*0.5 = 0.15.
			name:     "relative fallback step",
			scores:   []float32{0.2, 0.1},
			minScore: 0.3,
			wantLen:  2,
		},
		{
			// 0.12 passes the 0.1 floor.
			name:     "first absolute floor",
			scores:   []float32{0.12},
			minScore: 0.3,
			wantLen:  1,
		},
		{
			// 0.07 only passes the 0.05 floor.
			name:     "second absolute floor",
			scores:   []float32{0.07},
			minScore: 0.5,
			wantLen:  1,
		},
		{
			// Nothing passes any threshold; top 3 raw candidates come back.
			name:     "last resort top three",
			scores:   []float32{0.01, 0.01, 0.01, 0.01, 0.01},
			minScore: 0.3,
			wantLen:  3,
		},
		{
			name:     "last resort with fewer than three candidates",
			scores:   []float32{0.01, 0.01},
			minScore: 0.3,
			wantLen:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeVectorStore{results: results(tt.scores...)}
			r := NewRetriever(store, "docs")

			matches, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{
				TopK:     5,
				MinScore: tt.minScore,
			})
			if err != nil {
				t.Fatalf("Retrieve() error = %v", err)
			}
			if len(matches) != tt.wantLen {
				t.Errorf("Retrieve() = %d matches, want %d", len(matches), tt.wantLen)
			}
		})
	}
}

func TestRetrieve_HybridReranking(t *testing.T) {
	// Second candidate has a lower semantic score but its text contains the
	// query keywords; the blended score must promote it.
	store := &fakeVectorStore{results: []vectorstore.SearchResult{
		{PointID: "a", Score: 0.60, Meta: map[string]any{"text": "completely unrelated paragraph"}},
		{PointID: "b", Score: 0.55, Meta: map[string]any{"text": "redis cache eviction and cache warming, cache cache cache"}},
	}}
	r := NewRetriever(store, "docs")

	pre := query.Preprocess("redis cache eviction")
	matches, err := r.Retrieve(context.Background(), pre, []float32{0.1}, RetrieveOptions{
		TopK:      5,
		MinScore:  0.1,
		UseHybrid: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Retrieve() = %d matches, want 2", len(matches))
	}
	if matches[0].PointID != "b" {
		t.Errorf("hybrid reranking kept %q first, want keyword-rich candidate", matches[0].PointID)
	}
}

func TestRetrieve_HybridWithoutKeywordsKeepsOrder(t *testing.T) {
	store := &fakeVectorStore{results: results(0.9, 0.8)}
	r := NewRetriever(store, "docs")

	matches, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{
		TopK:      5,
		MinScore:  0.1,
		UseHybrid: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if matches[0].PointID != "p0" || matches[1].PointID != "p1" {
		t.Errorf("order changed without keywords: %v, %v", matches[0].PointID, matches[1].PointID)
	}
}

func TestRetrieve_PassesTopKAndFilter(t *testing.T) {
	store := &fakeVectorStore{results: results(0.9)}
	r := NewRetriever(store, "docs")

	filter := map[string]any{"document_id": []string{"d1"}, "user_id": "u1"}
	_, err := r.Retrieve(context.Background(), query.PreprocessResult{}, []float32{0.1}, RetrieveOptions{
		TopK:     7,
		MinScore: 0.1,
		Filter:   filter,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.lastK != 7 {
		t.Errorf("search K = %d, want 7", store.lastK)
	}
	if store.lastFilter["user_id"] != "u1" {
		t.Errorf("filter not forwarded: %v", store.lastFilter)
	}
}
