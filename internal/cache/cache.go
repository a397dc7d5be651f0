// Package cache stores serialized boundary detection results so a corpus
// rescan does not recompute layout statistics for unchanged books.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts. The parts are hashed so
// keys stay filesystem-safe regardless of what goes into them.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "glyphscan:v1:" + hex.EncodeToString(hash[:])
}

// BoundaryKey is the cache key for a book's boundary detection result under
// a specific tuning. Any tuning change must miss the cache.
func BoundaryKey(bookID int, minBodyRatio, epsMultiplier, minCoverage float64) string {
	return Key(
		"boundary",
		fmt.Sprintf("%d", bookID),
		fmt.Sprintf("%g:%g:%g", minBodyRatio, epsMultiplier, minCoverage),
	)
}
