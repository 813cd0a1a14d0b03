package indexer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"docquery/internal/service"
)

const (
	// DefaultTargetTokens is the default estimated token budget per chunk.
	DefaultTargetTokens = 500
	// DefaultOverlapTokens is the default estimated token overlap carried
	// across chunk boundaries.
	DefaultOverlapTokens = 50
	// charsPerToken is the approximation used for token counting. Exact
	// tokenization is backend-specific; ~4 chars per token is good enough
	// for chunk sizing and must stay stable across index rebuilds.
	charsPerToken = 4.0
)

// EstimateTokens estimates the token count of text as ceil(runes / 4).
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / charsPerToken))
}

// ChunkText splits text into overlapping, sentence-bounded chunks sized by
// estimated token count. Empty or whitespace-only input yields an empty slice.
// Returns service.ErrInvalidParameter when overlapTokens is negative or not
// smaller than targetTokens.
func ChunkText(text string, targetTokens, overlapTokens int) ([]Chunk, error) {
	if targetTokens <= 0 {
		return nil, fmt.Errorf("%w: target tokens must be greater than 0", service.ErrInvalidParameter)
	}
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		return nil, fmt.Errorf("%w: overlap tokens must be in [0, target tokens)", service.ErrInvalidParameter)
	}
	if strings.TrimSpace(text) == "" {
		return []Chunk{}, nil
	}

	// Whole input fits in one chunk.
	if EstimateTokens(text) <= targetTokens {
		return []Chunk{{Text: text, Index: 0, StartChar: 0, EndChar: len(text)}}, nil
	}

	spans := splitSentences(text)
	if len(spans) == 0 {
		return []Chunk{}, nil
	}

	var (
		chunks      []Chunk
		cur         strings.Builder
		curStart    int
		lastEnd     int
		overlap     string
		overlapFrom int
	)

	closeChunk := func() {
		chunkText := cur.String()
		chunks = append(chunks, Chunk{
			Text:      chunkText,
			Index:     len(chunks),
			StartChar: curStart,
			EndChar:   lastEnd,
		})
		overlap = ""
		if overlapTokens > 0 {
			runes := []rune(chunkText)
			n := len(runes) * overlapTokens / targetTokens
			if n > 0 && n < len(runes) {
				overlap = string(runes[len(runes)-n:])
				overlapFrom = lastEnd - len(overlap)
				if overlapFrom < 0 {
					overlapFrom = 0
				}
			}
		}
		cur.Reset()
	}

	for _, sp := range spans {
		sentence := text[sp.start:sp.end]
		if cur.Len() > 0 && EstimateTokens(cur.String())+EstimateTokens(sentence) > targetTokens {
			closeChunk()
		}
		if cur.Len() == 0 {
			if overlap != "" {
				cur.WriteString(overlap)
				cur.WriteByte(' ')
				curStart = overlapFrom
				overlap = ""
			} else {
				curStart = sp.start
			}
			cur.WriteString(sentence)
		} else {
			cur.WriteByte(' ')
			cur.WriteString(sentence)
		}
		lastEnd = sp.end
	}

	if cur.Len() > 0 {
		closeChunk()
	}

	return chunks, nil
}

// ChunkPages slices text into pages at the given sorted byte offsets, chunks
// each page independently, tags each chunk with its 1-based page number, and
// re-numbers chunk indexes globally. Offsets outside (0, len(text)) are
// ignored; an empty offset list degrades to ChunkText.
func ChunkPages(text string, pageOffsets []int, targetTokens, overlapTokens int) ([]Chunk, error) {
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		return nil, fmt.Errorf("%w: overlap tokens must be in [0, target tokens)", service.ErrInvalidParameter)
	}

	bounds := []int{0}
	for _, off := range pageOffsets {
		if off <= bounds[len(bounds)-1] || off >= len(text) {
			continue
		}
		bounds = append(bounds, off)
	}
	bounds = append(bounds, len(text))

	var all []Chunk
	for page := 0; page < len(bounds)-1; page++ {
		pageStart := bounds[page]
		pageText := text[pageStart:bounds[page+1]]

		pageChunks, err := ChunkText(pageText, targetTokens, overlapTokens)
		if err != nil {
			return nil, err
		}
		for _, c := range pageChunks {
			c.Index = len(all)
			c.StartChar += pageStart
			c.EndChar += pageStart
			c.PageNumber = page + 1
			all = append(all, c)
		}
	}

	if all == nil {
		return []Chunk{}, nil
	}
	return all, nil
}

// MergeSmallChunks combines any chunk whose estimated token size falls below
// minTokens into the previous chunk, so fragments too small to be useful
// retrieval units never reach the index. A leading small chunk with no
// previous chunk is kept as is. Chunk indexes are renumbered afterward.
func MergeSmallChunks(chunks []Chunk, minTokens int) []Chunk {
	if len(chunks) == 0 || minTokens <= 0 {
		return chunks
	}

	result := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(result) > 0 && EstimateTokens(c.Text) < minTokens {
			prev := &result[len(result)-1]
			prev.Text = prev.Text + " " + c.Text
			if c.EndChar > prev.EndChar {
				prev.EndChar = c.EndChar
			}
			continue
		}
		result = append(result, c)
	}

	for i := range result {
		result[i].Index = i
	}
	return result
}

type sentenceSpan struct {
	start, end int
}

// splitSentences splits text on runs of terminal punctuation (. ! ?) and
// returns byte spans of each sentence with surrounding whitespace trimmed.
func splitSentences(text string) []sentenceSpan {
	var spans []sentenceSpan

	appendSpan := func(start, end int) {
		for start < end && isSpace(text[start]) {
			start++
		}
		for end > start && isSpace(text[end-1]) {
			end--
		}
		if start < end {
			spans = append(spans, sentenceSpan{start: start, end: end})
		}
	}

	start := 0
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			j := i + 1
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			appendSpan(start, j)
			start = j
			i = j
			continue
		}
		i++
	}
	appendSpan(start, len(text))

	return spans
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
