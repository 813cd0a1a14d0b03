package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docquery/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"

	"docquery/internal/service"
)

// DocumentStore defines the interface for document registry operations.
type DocumentStore interface {
	// Upsert inserts or replaces a document record.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns service.ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// ListByUser returns all documents for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*DocumentRecord, error)
	// Delete removes a document record. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document registry operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts or replaces a document record.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, file_name, file_type, hash, chunk_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			file_name = excluded.file_name,
			file_type = excluded.file_type,
			hash = excluded.hash,
			chunk_count = excluded.chunk_count`,
		doc.ID, doc.UserID, doc.FileName, doc.FileType, doc.Hash, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns service.ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, file_name, file_type, hash, chunk_count, created_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileType, &doc.Hash, &doc.ChunkCount, &doc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, service.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

// ListByUser returns all documents for a user, newest first.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID string) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, file_name, file_type, hash, chunk_count, created_at FROM documents WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.FileName, &doc.FileType, &doc.Hash, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes a document record. Deleting a missing ID is not an error.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
