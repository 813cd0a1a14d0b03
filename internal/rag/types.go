package rag

import "docquery/internal/llm"

// AskRequest is a RAG query with optional scoping and tuning parameters.
// Zero values select the engine defaults.
type AskRequest struct {
	Query       string
	DocumentIDs []string
	UserID      string
	TopK        int
	MinScore    float32
	Generation  llm.GenerateOptions
}

// Source is one retrieved chunk backing an answer.
type Source struct {
	Text     string
	Score    float32
	Metadata map[string]any
}

// AskResponse is the packaged result of one RAG query. Context is the raw
// numbered context block the answer was grounded on; Model names the backend
// that produced the answer, or "" when generation failed and the context was
// returned verbatim.
type AskResponse struct {
	Answer  string
	Sources []Source
	Context string
	Model   string
}
