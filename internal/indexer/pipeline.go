package indexer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docquery/internal/contextutil"
	"docquery/internal/llm"
	"docquery/internal/service"
	"docquery/internal/storage"
	"docquery/internal/vectorstore"
)

// Pipeline orchestrates ingestion: extracted text is chunked, embedded in one
// batched request, and upserted into the vector index with full chunk
// metadata, while the document registry records what was ingested.
type Pipeline struct {
	docRepo     storage.DocumentStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	collection  string

	targetTokens  int
	overlapTokens int
	minTokens     int
}

// NewPipeline creates a new ingestion pipeline. Chunking parameters at or
// below zero select the package defaults.
func NewPipeline(
	docRepo storage.DocumentStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	targetTokens, overlapTokens, minTokens int,
) *Pipeline {
	if targetTokens <= 0 {
		targetTokens = DefaultTargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = DefaultOverlapTokens
	}
	return &Pipeline{
		docRepo:       docRepo,
		embedder:      embedder,
		vectorStore:   vectorStore,
		collection:    collection,
		targetTokens:  targetTokens,
		overlapTokens: overlapTokens,
		minTokens:     minTokens,
	}
}

// IndexDocument chunks text and indexes the chunks under documentID/userID.
// When the document was previously ingested with identical content the call
// is a no-op; when content changed, the old vectors are replaced.
func (p *Pipeline) IndexDocument(ctx context.Context, documentID, userID, text string, meta DocumentMeta) (*IngestStats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(text)))

	existing, err := p.docRepo.GetByID(ctx, documentID)
	if err != nil && err != service.ErrNotFound {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged document", "document_id", documentID, "hash", hash)
		return &IngestStats{Skipped: true, ChunkCount: existing.ChunkCount}, nil
	}

	var chunks []Chunk
	if len(meta.PageOffsets) > 0 {
		chunks, err = ChunkPages(text, meta.PageOffsets, p.targetTokens, p.overlapTokens)
	} else {
		chunks, err = ChunkText(text, p.targetTokens, p.overlapTokens)
	}
	if err != nil {
		return nil, err
	}
	if p.minTokens > 0 {
		chunks = MergeSmallChunks(chunks, p.minTokens)
	}

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "document_id", documentID)
		return &IngestStats{}, nil
	}

	// Replace any previously indexed vectors for this document.
	if existing != nil {
		if err := p.vectorStore.DeleteByFilter(ctx, p.collection, map[string]any{"document_id": documentID}); err != nil {
			logger.WarnContext(ctx, "failed to delete old vectors", "document_id", documentID, "error", err)
			// Continue anyway - new points overwrite by metadata at query time
		}
	}

	if err := p.IndexChunks(ctx, chunks, documentID, userID, meta); err != nil {
		return nil, err
	}

	record := &storage.DocumentRecord{
		ID:         documentID,
		UserID:     userID,
		FileName:   meta.FileName,
		FileType:   meta.FileType,
		Hash:       hash,
		ChunkCount: len(chunks),
	}
	if err := p.docRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to upsert document record: %w", err)
	}

	stats := ComputeIngestStats(chunks)
	logger.InfoContext(ctx, "indexed document",
		"document_id", documentID,
		"chunks", len(chunks),
		"mean_tokens", stats.TokenStats.Mean,
	)
	return &stats, nil
}

// IndexChunks embeds the given chunks in one batched request and upserts the
// resulting points, each carrying the chunk text and metadata as payload.
func (p *Pipeline) IndexChunks(ctx context.Context, chunks []Chunk, documentID, userID string, meta DocumentMeta) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]any{
			"text":        chunk.Text,
			"document_id": documentID,
			"user_id":     userID,
			"chunk_index": chunk.Index,
			"start_char":  chunk.StartChar,
			"end_char":    chunk.EndChar,
			"created_at":  createdAt,
		}
		if chunk.PageNumber > 0 {
			payload["page_number"] = chunk.PageNumber
		}
		if meta.FileName != "" {
			payload["file_name"] = meta.FileName
		}
		if meta.FileType != "" {
			payload["file_type"] = meta.FileType
		}

		points[i] = vectorstore.Point{
			ID:   uuid.New().String(),
			Vec:  embeddings[i],
			Meta: payload,
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// DeleteDocument removes a document's vectors and its registry record.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := p.vectorStore.DeleteByFilter(ctx, p.collection, map[string]any{"document_id": documentID}); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := p.docRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	logger.InfoContext(ctx, "deleted document", "document_id", documentID)
	return nil
}
