package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"docquery/internal/contextutil"
	"docquery/internal/llm"
	"docquery/internal/rag"
	"docquery/internal/service"
)

// AskHandler handles HTTP requests for document questions.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload for document questions.
// This mirrors rag.AskRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	MinScore    float32  `json:"min_score,omitempty"`
	Model       string   `json:"model,omitempty"`
	Backend     string   `json:"backend,omitempty"`
}

// AskResponse represents the HTTP response payload for document questions.
type AskResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
	Model   string           `json:"model,omitempty"`
}

// SourceResponse represents one retrieved chunk cited in the answer.
type SourceResponse struct {
	Text     string         `json:"text"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ServeHTTP handles POST /api/v1/ask.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		logger.WarnContext(ctx, "empty query in request")
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	// Enforce bounds for user-provided top_k. Zero means "use default".
	if req.TopK < 0 {
		req.TopK = 0
	}
	if req.TopK > 20 {
		req.TopK = 20
	}

	ragReq := rag.AskRequest{
		Query:       req.Query,
		DocumentIDs: req.DocumentIDs,
		UserID:      req.UserID,
		TopK:        req.TopK,
		MinScore:    req.MinScore,
		Generation: llm.GenerateOptions{
			Strategy:       req.Backend,
			PreferredModel: req.Model,
		},
	}

	ragResp, err := h.engine.Answer(ctx, ragReq)
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	sources := make([]SourceResponse, len(ragResp.Sources))
	for i, src := range ragResp.Sources {
		sources[i] = SourceResponse{
			Text:     src.Text,
			Score:    src.Score,
			Metadata: src.Metadata,
		}
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:  ragResp.Answer,
		Sources: sources,
		Model:   ragResp.Model,
	})
}

// handleEngineError maps engine errors to HTTP status codes.
func (h *AskHandler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "query engine error", "error", err)

	switch {
	case errors.Is(err, service.ErrInvalidQuery), errors.Is(err, service.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoRelevantContent):
		writeError(w, http.StatusNotFound, "No relevant content found for this query")
	case errors.Is(err, service.ErrProviderUnavailable), errors.Is(err, service.ErrProviderError), errors.Is(err, service.ErrAllBackendsFailed):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to process query")
	}
}
