// Package query provides zero-cost query preprocessing: normalization,
// stop-word-filtered keyword extraction, phrase extraction, and lexical
// keyword scoring. All functions are pure and perform no I/O.
package query

import (
	"math"
	"regexp"
	"strings"
)

// PreprocessResult holds the normalized forms of a raw query.
type PreprocessResult struct {
	Original   string
	Normalized string
	Keywords   []string
	Cleaned    string
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	// Strip punctuation except word characters, whitespace, and hyphens.
	punctuationRE = regexp.MustCompile(`[^\w\s-]`)
	numericRE     = regexp.MustCompile(`^\d+$`)
)

// Preprocess normalizes a query and extracts its keyword set.
// Cleaned falls back to Normalized when every token was filtered out, so
// downstream consumers never receive an empty string for a non-empty query.
func Preprocess(q string) PreprocessResult {
	normalized := whitespaceRE.ReplaceAllString(strings.TrimSpace(strings.ToLower(q)), " ")
	stripped := punctuationRE.ReplaceAllString(normalized, "")

	var keywords []string
	for _, token := range strings.Fields(stripped) {
		if _, isStop := stopwords[token]; isStop {
			continue
		}
		if len(token) <= 2 && !numericRE.MatchString(token) {
			continue
		}
		keywords = append(keywords, token)
	}

	cleaned := strings.Join(keywords, " ")
	if cleaned == "" {
		cleaned = normalized
	}

	return PreprocessResult{
		Original:   q,
		Normalized: normalized,
		Keywords:   keywords,
		Cleaned:    cleaned,
	}
}

// ExtractPhrases returns contiguous 2-word keyword phrases, plus 3-word
// phrases when at least three keywords exist. Callers use these as coarse
// phrase-level signals.
func ExtractPhrases(keywords []string) []string {
	var phrases []string
	for i := 0; i+1 < len(keywords); i++ {
		phrases = append(phrases, keywords[i]+" "+keywords[i+1])
	}
	if len(keywords) >= 3 {
		for i := 0; i+2 < len(keywords); i++ {
			phrases = append(phrases, keywords[i]+" "+keywords[i+1]+" "+keywords[i+2])
		}
	}
	return phrases
}

// KeywordScore computes a bounded [0,1] lexical relevance score for text
// against a keyword list. Each keyword contributes ln(1+k) for k whole-word
// case-insensitive occurrences; the total is normalized against an assumed
// ceiling of 10 occurrences per keyword and scaled by the fraction of
// keywords that matched at all, rewarding breadth as well as depth.
func KeywordScore(keywords []string, text string) float64 {
	if len(keywords) == 0 || strings.TrimSpace(text) == "" {
		return 0
	}

	var total float64
	matched := 0
	for _, kw := range keywords {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			continue
		}
		k := len(re.FindAllStringIndex(text, -1))
		if k == 0 {
			continue
		}
		matched++
		total += math.Log(1 + float64(k))
	}
	if matched == 0 {
		return 0
	}

	n := float64(len(keywords))
	score := (total / (n * math.Log(10))) * (float64(matched) / n)
	return math.Min(1, score)
}
