package domain

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// CacheNamespace partitions cache keys by the stage that owns them
type CacheNamespace string

const (
	CacheNamespaceHTML     CacheNamespace = "html"
	CacheNamespaceAnalysis CacheNamespace = "analysis"
)

// cacheKeyPrefix scopes every key this service writes to a shared store
const cacheKeyPrefix = "policylens:"

// DefaultAnalysisCacheTTL is how long a successful analysis is served from cache
const DefaultAnalysisCacheTTL = 7 * 24 * time.Hour

// CacheKey derives the namespaced key for a URL.
// The URL is hashed so keys stay bounded and free of separator characters.
func CacheKey(namespace CacheNamespace, url string) string {
	sum := blake2b.Sum256([]byte(url))
	return cacheKeyPrefix + string(namespace) + ":" + hex.EncodeToString(sum[:16])
}

// CacheEntry is one stored value with its expiry
type CacheEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the entry is past its expiry at now.
// A zero ExpiresAt never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
