package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultResponses = 1024

// ResponseCache memoizes rendered responses for a single snapshot generation.
// Entries computed against an older generation are discarded on the first
// request that presents a newer one.
type ResponseCache struct {
	mu         sync.Mutex
	generation uint64
	entries    *lru.Cache[Key, []byte]

	hits   uint64
	misses uint64
}

func NewResponseCache(size int) (*ResponseCache, error) {
	if size <= 0 {
		size = DefaultResponses
	}
	entries, err := lru.New[Key, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating response cache: %w", err)
	}
	return &ResponseCache{entries: entries}, nil
}

// Get returns the response stored under key for generation, calling compute on a miss.
// A nil result is returned but not stored, so the next request computes it again.
func (c *ResponseCache) Get(generation uint64, key Key, compute func() []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		c.entries.Purge()
		c.generation = generation
	}
	if v, ok := c.entries.Get(key); ok {
		c.hits++
		return v
	}
	c.misses++
	v := compute()
	if v != nil {
		c.entries.Add(key, v)
	}
	return v
}

func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Stats returns the lifetime hit and miss counts.
func (c *ResponseCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
