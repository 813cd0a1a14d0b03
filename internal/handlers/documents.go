package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docquery/internal/contextutil"
	"docquery/internal/indexer"
	"docquery/internal/storage"
)

// DocumentsHandler handles listing and deleting ingested documents.
type DocumentsHandler struct {
	docRepo  storage.DocumentStore
	pipeline *indexer.Pipeline
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docRepo storage.DocumentStore, pipeline *indexer.Pipeline) *DocumentsHandler {
	return &DocumentsHandler{docRepo: docRepo, pipeline: pipeline}
}

// DocumentResponse represents one ingested document.
type DocumentResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	FileName   string `json:"file_name,omitempty"`
	FileType   string `json:"file_type,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
}

// List handles GET /api/v1/documents?user_id=...
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return
	}

	docs, err := h.docRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, DocumentResponse{
			ID:         doc.ID,
			UserID:     doc.UserID,
			FileName:   doc.FileName,
			FileType:   doc.FileType,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"documents": resp})
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	documentID := chi.URLParam(r, "id")
	if documentID == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if err := h.pipeline.DeleteDocument(ctx, documentID); err != nil {
		logger.ErrorContext(ctx, "failed to delete document", "document_id", documentID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
