package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"docquery/internal/contextutil"
	"docquery/internal/extract"
	"docquery/internal/indexer"
)

// IngestHandler handles HTTP requests for document ingestion.
type IngestHandler struct {
	queue *indexer.Queue
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(queue *indexer.Queue) *IngestHandler {
	return &IngestHandler{queue: queue}
}

// IngestRequest represents the HTTP request payload for document ingestion.
type IngestRequest struct {
	// DocumentID is optional; a UUID is assigned when omitted.
	DocumentID string `json:"document_id,omitempty"`
	UserID     string `json:"user_id"`
	FileName   string `json:"file_name,omitempty"`
	// FileType selects extraction: "md" runs markdown flattening, anything
	// else (or empty) treats Text as already plain.
	FileType string `json:"file_type,omitempty"`
	Text     string `json:"text"`
	// PageOffsets are byte offsets of page starts for paginated sources.
	PageOffsets []int `json:"page_offsets,omitempty"`
	// Wait makes the request block until ingestion completes.
	Wait bool `json:"wait,omitempty"`
}

// IngestResponse represents the HTTP response payload for document ingestion.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// ServeHTTP handles POST /api/v1/documents.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" {
		logger.WarnContext(ctx, "empty text in ingest request")
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if req.UserID == "" {
		logger.WarnContext(ctx, "missing user_id in ingest request")
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	text := req.Text
	if req.FileType == "md" || req.FileType == "markdown" {
		flattened, err := extract.MarkdownText([]byte(req.Text))
		if err != nil {
			logger.WarnContext(ctx, "markdown extraction failed", "error", err)
			writeError(w, http.StatusBadRequest, "Failed to extract markdown text")
			return
		}
		text = flattened
	}

	documentID := req.DocumentID
	if documentID == "" {
		documentID = uuid.New().String()
	}

	job := indexer.IngestJob{
		DocumentID: documentID,
		UserID:     req.UserID,
		Text:       text,
		Meta: indexer.DocumentMeta{
			FileName:    req.FileName,
			FileType:    req.FileType,
			PageOffsets: req.PageOffsets,
		},
	}

	done, err := h.queue.Submit(ctx, job)
	if err != nil {
		logger.ErrorContext(ctx, "failed to enqueue ingestion", "document_id", documentID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Ingestion queue unavailable")
		return
	}

	if !req.Wait {
		writeJSON(w, http.StatusAccepted, IngestResponse{DocumentID: documentID, Status: "queued"})
		return
	}

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorContext(ctx, "ingestion failed", "document_id", documentID, "error", err)
			writeError(w, http.StatusInternalServerError, "Ingestion failed")
			return
		}
		writeJSON(w, http.StatusOK, IngestResponse{DocumentID: documentID, Status: "indexed"})
	case <-ctx.Done():
		// Job keeps running in the background; the client just stopped waiting.
		writeJSON(w, http.StatusAccepted, IngestResponse{DocumentID: documentID, Status: "queued"})
	}
}
