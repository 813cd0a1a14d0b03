package handlers

import (
	"context"

	"docquery/internal/indexer"
	"docquery/internal/rag"
	"docquery/internal/service"
	"docquery/internal/storage"
	"docquery/internal/vectorstore"
)

// fakeEngine is a scriptable rag.Engine.
type fakeEngine struct {
	resp    rag.AskResponse
	err     error
	lastReq rag.AskRequest
}

func (f *fakeEngine) Answer(ctx context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return rag.AskResponse{}, f.err
	}
	return f.resp, nil
}

// fakeDocStore is an in-memory storage.DocumentStore.
type fakeDocStore struct {
	docs map[string]*storage.DocumentRecord
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]*storage.DocumentRecord)}
}

func (f *fakeDocStore) Upsert(ctx context.Context, doc *storage.DocumentRecord) error {
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocStore) GetByID(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocStore) ListByUser(ctx context.Context, userID string) ([]*storage.DocumentRecord, error) {
	var out []*storage.DocumentRecord
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) Delete(ctx context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

// fakeVectorStore is a no-op vectorstore.VectorStore.
type fakeVectorStore struct{}

func (f *fakeVectorStore) Upsert(ctx context.Context, collection string, points []vectorstore.Point) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, collection string, q []float32, k int, filters map[string]any) ([]vectorstore.SearchResult, error) {
	return nil, nil
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

// fakeEmbedder returns fixed-size vectors.
type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func newTestPipeline(docs *fakeDocStore) *indexer.Pipeline {
	return indexer.NewPipeline(docs, &fakeEmbedder{}, &fakeVectorStore{}, "docs", 500, 50, 0)
}
