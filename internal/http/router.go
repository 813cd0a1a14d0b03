package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docquery/internal/handlers"
	"docquery/internal/indexer"
	"docquery/internal/rag"
	"docquery/internal/storage"
	"docquery/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine      rag.Engine
	Queue       *indexer.Queue
	Pipeline    *indexer.Pipeline
	DocRepo     storage.DocumentStore
	VectorStore vectorstore.VectorStore
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Engine)
	ingestHandler := handlers.NewIngestHandler(deps.Queue)
	documentsHandler := handlers.NewDocumentsHandler(deps.DocRepo, deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Collection)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/documents", ingestHandler)
		r.Get("/documents", documentsHandler.List)
		r.Delete("/documents/{id}", documentsHandler.Delete)
	})

	r.Method(http.MethodGet, "/healthz", healthHandler)

	return r
}
