package rag

import (
	"fmt"
	"strings"

	"docquery/internal/vectorstore"
)

// buildContext concatenates retrieved chunk texts into a numbered context
// block, in descending-score order: "[1] ...", "[2] ...". Bracket numbers are
// the citation keys the generation prompt asks for.
func buildContext(matches []vectorstore.SearchResult) string {
	var sb strings.Builder
	for i, match := range matches {
		text, _ := match.Meta["text"].(string)
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d] %s", i+1, text))
	}
	return sb.String()
}

// buildPrompt embeds the context block and the original question into a
// grounding prompt for the generation backends.
func buildPrompt(question, contextBlock string) string {
	var sb strings.Builder
	sb.WriteString("You are a document analysis assistant. Answer the question using only the numbered context excerpts below.\n")
	sb.WriteString("Cite the excerpts you used by their bracket number, e.g. [1] or [2].\n")
	sb.WriteString("If the context does not contain enough information to answer, say so explicitly.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}
