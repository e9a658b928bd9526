package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key derives a cache key from kind and the JSON encoding of parts. Parts
// that cannot be encoded are an error rather than a silent collision.
func Key(kind string, parts ...any) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return kind + ":" + Hash(data), nil
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
