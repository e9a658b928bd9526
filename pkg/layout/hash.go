package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashParts digests the JSON encoding of parts. Snapshots and cached data
// clusters compare digests instead of keeping full copies of the state.
func hashParts(parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
