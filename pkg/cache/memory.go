package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCache keeps entries in memory, evicting the oldest insertion once
// more than a fixed number are stored.
type MemoryCache struct {
	limit int

	mu      sync.Mutex
	entries map[string]memoryEntry
	order   []string
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates a cache holding at most limit entries. A limit of
// zero or less means 256.
func NewMemoryCache(limit int) *MemoryCache {
	if limit <= 0 {
		limit = 256
	}
	return &MemoryCache{limit: limit, entries: make(map[string]memoryEntry)}
}

// Get retrieves a value from the cache. Expired entries are dropped.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.remove(key)
		return nil, false, nil
	}
	return slices.Clone(e.data), true, nil
}

// Set stores a copy of data under key.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{data: slices.Clone(data)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = e
	for len(c.order) > c.limit {
		c.remove(c.order[0])
	}
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close does nothing for the memory cache.
func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
}

var _ Cache = (*MemoryCache)(nil)
