package indexer

import (
	"math"
	"sort"
)

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	// ChunkCount is the number of chunks indexed (or already present when
	// the run was skipped).
	ChunkCount int `json:"chunk_count"`
	// Skipped reports that the document content was unchanged and nothing
	// was re-indexed.
	Skipped bool `json:"skipped,omitempty"`
	// TokenStats describes the estimated token counts of the indexed chunks.
	TokenStats TokenStats `json:"token_stats"`
}

// TokenStats contains statistics about estimated token counts in chunks.
type TokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeIngestStats computes chunk-count and token statistics for a run.
func ComputeIngestStats(chunks []Chunk) IngestStats {
	stats := IngestStats{ChunkCount: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}

	counts := make([]int, len(chunks))
	for i, chunk := range chunks {
		counts[i] = EstimateTokens(chunk.Text)
	}
	stats.TokenStats = computeTokenStats(counts)
	return stats
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) TokenStats {
	if len(tokenCounts) == 0 {
		return TokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return TokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
