// Package cache provides the in-memory product embedding cache.
package cache

import (
	"errors"
	"sync"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// VectorCache stores product embeddings for the process lifetime.
//
// Entries are never evicted; the cache is bounded by catalog size (low
// thousands). Writes are idempotent last-writer-wins: two requests racing to
// embed the same product store equal vectors, so a read-check-write race is
// acceptable. Vectors are comparable only within one encoder model version;
// Reset invalidates everything when the model changes.
type VectorCache struct {
	mu    sync.RWMutex
	model string
	data  map[string][]float32
}

// NewVectorCache creates an empty cache bound to an encoder model version.
func NewVectorCache(model string) *VectorCache {
	return &VectorCache{
		model: model,
		data:  make(map[string][]float32),
	}
}

// Get returns the cached embedding for a product id.
func (c *VectorCache) Get(productID string) ([]float32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vec, ok := c.data[productID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return vec, nil
}

// Put stores an embedding for a product id, overwriting any previous entry.
func (c *VectorCache) Put(productID string, vec []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Copy so callers cannot mutate a shared vector after the fact.
	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.data[productID] = stored
}

// Len returns the number of cached embeddings.
func (c *VectorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Model returns the encoder model version the cache is bound to.
func (c *VectorCache) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Reset drops all entries if the encoder model version changed.
// Vectors from different model versions are not comparable.
func (c *VectorCache) Reset(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == model {
		return
	}
	c.model = model
	c.data = make(map[string][]float32)
}

// Snapshot returns a copy of the cached product ids. Useful in tests.
func (c *VectorCache) Snapshot() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.data))
	for id := range c.data {
		ids = append(ids, id)
	}
	return ids
}
