package cache

import (
	"context"
	"sync"
)

// MemoryCache is an in-process Cache backed by a map. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]float32),
	}
}

// Get returns the cached vector for key, or ErrCacheMiss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vec, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// Put stores the vector under key, overwriting any existing entry.
func (c *MemoryCache) Put(_ context.Context, key string, vec []float32) error {
	stored := make([]float32, len(vec))
	copy(stored, vec)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stored
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
