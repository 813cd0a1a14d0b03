// Package cache provides the embedding lookup cache: a key-value store of
// query/chunk text to embedding vectors with read-then-write-on-miss
// semantics. Eviction and sizing are the backing store's responsibility.
package cache

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_cache.go -package=mocks docquery/internal/cache Cache

import (
	"context"
	"errors"
)

// ErrCacheMiss indicates the key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores embedding vectors keyed by exact text.
type Cache interface {
	// Get returns the cached vector for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]float32, error)

	// Put stores the vector under key, overwriting any existing entry.
	Put(ctx context.Context, key string, vec []float32) error
}
