package query

import (
	"math"
	"reflect"
	"testing"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		wantNormalized string
		wantKeywords   []string
		wantCleaned    string
	}{
		{
			name:           "lowercases and collapses whitespace",
			query:          "  What   IS\tthe  Answer? ",
			wantNormalized: "what is the answer?",
			wantKeywords:   []string{"answer"},
			wantCleaned:    "answer",
		},
		{
			name:           "filters stopwords and short tokens",
			query:          "the quick brown fox is on a log",
			wantNormalized: "the quick brown fox is on a log",
			wantKeywords:   []string{"quick", "brown", "fox", "log"},
			wantCleaned:    "quick brown fox log",
		},
		{
			name:           "keeps short numeric tokens",
			query:          "error 42 in chapter 7",
			wantNormalized: "error 42 in chapter 7",
			wantKeywords:   []string{"error", "42", "chapter", "7"},
			wantCleaned:    "error 42 chapter 7",
		},
		{
			name:           "strips punctuation but keeps hyphens",
			query:          "what's a write-through cache?!",
			wantNormalized: "what's a write-through cache?!",
			wantKeywords:   []string{"whats", "write-through", "cache"},
			wantCleaned:    "whats write-through cache",
		},
		{
			name:           "all stopwords falls back to normalized",
			query:          "is it the",
			wantNormalized: "is it the",
			wantKeywords:   nil,
			wantCleaned:    "is it the",
		},
		{
			name:           "empty query",
			query:          "",
			wantNormalized: "",
			wantKeywords:   nil,
			wantCleaned:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preprocess(tt.query)
			if got.Original != tt.query {
				t.Errorf("Original = %q, want %q", got.Original, tt.query)
			}
			if got.Normalized != tt.wantNormalized {
				t.Errorf("Normalized = %q, want %q", got.Normalized, tt.wantNormalized)
			}
			if !reflect.DeepEqual(got.Keywords, tt.wantKeywords) {
				t.Errorf("Keywords = %v, want %v", got.Keywords, tt.wantKeywords)
			}
			if got.Cleaned != tt.wantCleaned {
				t.Errorf("Cleaned = %q, want %q", got.Cleaned, tt.wantCleaned)
			}
		})
	}
}

func TestExtractPhrases(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     []string
	}{
		{name: "no keywords", keywords: nil, want: nil},
		{name: "single keyword", keywords: []string{"cache"}, want: nil},
		{
			name:     "two keywords",
			keywords: []string{"redis", "cache"},
			want:     []string{"redis cache"},
		},
		{
			name:     "three keywords adds trigram",
			keywords: []string{"redis", "cache", "ttl"},
			want:     []string{"redis cache", "cache ttl", "redis cache ttl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPhrases(tt.keywords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractPhrases(%v) = %v, want %v", tt.keywords, got, tt.want)
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	t.Run("empty keywords", func(t *testing.T) {
		if got := KeywordScore(nil, "some text"); got != 0 {
			t.Errorf("KeywordScore() = %v, want 0", got)
		}
	})

	t.Run("blank text", func(t *testing.T) {
		if got := KeywordScore([]string{"cache"}, "   "); got != 0 {
			t.Errorf("KeywordScore() = %v, want 0", got)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		if got := KeywordScore([]string{"cache"}, "nothing relevant here"); got != 0 {
			t.Errorf("KeywordScore() = %v, want 0", got)
		}
	})

	t.Run("single keyword single occurrence", func(t *testing.T) {
		got := KeywordScore([]string{"cache"}, "the cache is warm")
		want := math.Log(2) / math.Log(10)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("KeywordScore() = %v, want %v", got, want)
		}
	})

	t.Run("partial keyword match scales by coverage", func(t *testing.T) {
		// One of two keywords matches once: (ln 2 / (2 ln 10)) * (1/2).
		got := KeywordScore([]string{"cache", "missing"}, "the cache is warm")
		want := (math.Log(2) / (2 * math.Log(10))) * 0.5
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("KeywordScore() = %v, want %v", got, want)
		}
	})

	t.Run("case insensitive whole word matching", func(t *testing.T) {
		full := KeywordScore([]string{"cache"}, "CACHE Cache cache")
		if full <= 0 {
			t.Fatalf("KeywordScore() = %v, want > 0", full)
		}
		// "cached" must not count as "cache".
		if got := KeywordScore([]string{"cache"}, "everything is cached"); got != 0 {
			t.Errorf("KeywordScore() matched substring, got %v", got)
		}
	})

	t.Run("bounded at one", func(t *testing.T) {
		text := ""
		for i := 0; i < 500; i++ {
			text += "cache "
		}
		if got := KeywordScore([]string{"cache"}, text); got > 1 {
			t.Errorf("KeywordScore() = %v, want <= 1", got)
		}
	})

	t.Run("more occurrences score higher", func(t *testing.T) {
		low := KeywordScore([]string{"cache"}, "cache")
		high := KeywordScore([]string{"cache"}, "cache cache cache")
		if high <= low {
			t.Errorf("KeywordScore() did not increase with occurrences: %v <= %v", high, low)
		}
	})
}
