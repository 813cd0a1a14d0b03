package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownText flattens markdown source to plain text suitable for chunking.
// Block boundaries become paragraph breaks so sentence detection still works;
// inline markup (emphasis, links, code spans) is reduced to its text content.
func MarkdownText(source []byte) (string, error) {
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	var b strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if isBlockBoundary(n) && b.Len() > 0 {
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.CodeBlock:
			writeLines(&b, source, node)
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			writeLines(&b, source, node)
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(node.URL(source))
			return ast.WalkSkipChildren, nil
		case *ast.Image:
			// Alt text comes through as child text nodes.
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk markdown tree: %w", err)
	}

	return strings.TrimSpace(b.String()), nil
}

func isBlockBoundary(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.CodeBlock, *ast.FencedCodeBlock, *ast.Blockquote:
		return true
	}
	return false
}

func writeLines(b *strings.Builder, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
}
