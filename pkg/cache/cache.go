// Package cache stores rendered artifacts so identical requests skip the
// format and render passes.
//
// Keys come from [Key], which hashes everything that influences the output:
// the graph document, the configuration and the output format. Three
// backends share the [Cache] interface:
//
//   - [MemoryCache] for the HTTP server
//   - [FileCache] for the CLI, under the user cache directory
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. A TTL of zero never expires.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
