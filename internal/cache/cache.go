// Package cache provides the analysis result cache. Reports are keyed by a
// hash of the raw document content, which is safe because the pipeline is
// deterministic for identical input.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ContentKey builds a cache key from raw document bytes.
func ContentKey(content []byte) string {
	hash := sha256.Sum256(content)
	return "threatlens:v1:doc:" + hex.EncodeToString(hash[:])
}

// URLKey builds a cache key for a fetched URL.
func URLKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "threatlens:v1:url:" + hex.EncodeToString(hash[:])
}
