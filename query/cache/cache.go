// Package cache provides caching of compiled statements.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores compiled values by key
type Cache interface {
	// Get retrieves a value from the cache
	Get(key string) (any, bool)
	// Set stores a value in the cache
	Set(key string, value any)
	// Invalidate removes a specific key from the cache
	Invalidate(key string)
	// InvalidatePattern removes all keys matching a pattern (e.g., "postgres:users:*")
	InvalidatePattern(pattern string)
	// Clear removes all entries from the cache
	Clear()
	// GetStats returns cache statistics
	GetStats() Stats
}

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRUCache is a size-bounded LRU cache with a cache-wide TTL. It is safe for
// concurrent use.
type LRUCache struct {
	lru       *expirable.LRU[string, any]
	maxSize   int
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	clearing  atomic.Bool
}

// NewLRUCache creates a new LRU cache. A ttl of zero disables expiry.
func NewLRUCache(maxSize int, ttl time.Duration) *LRUCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	c := &LRUCache{maxSize: maxSize}
	c.lru = expirable.NewLRU[string, any](maxSize, func(string, any) {
		if !c.clearing.Load() {
			c.evictions.Add(1)
		}
	}, ttl)
	return c
}

// Get retrieves a value from the cache
func (c *LRUCache) Get(key string) (any, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores a value in the cache
func (c *LRUCache) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Invalidate removes a specific key from the cache
func (c *LRUCache) Invalidate(key string) {
	c.clearing.Store(true)
	defer c.clearing.Store(false)
	c.lru.Remove(key)
}

// InvalidatePattern removes all keys matching a pattern.
// Pattern format: "prefix:*", "*:suffix" or "*:middle:*"
func (c *LRUCache) InvalidatePattern(pattern string) {
	c.clearing.Store(true)
	defer c.clearing.Store(false)
	for _, key := range c.lru.Keys() {
		if matchesPattern(key, pattern) {
			c.lru.Remove(key)
		}
	}
}

// Clear removes all entries from the cache and resets statistics
func (c *LRUCache) Clear() {
	c.clearing.Store(true)
	c.lru.Purge()
	c.clearing.Store(false)
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

// GetStats returns cache statistics
func (c *LRUCache) GetStats() Stats {
	stats := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Size:      c.lru.Len(),
		MaxSize:   c.maxSize,
		Evictions: c.evictions.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// matchesPattern checks if a key matches a pattern. A trailing "*" segment
// matches any remainder of the key.
func matchesPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}

	parts := strings.Split(pattern, ":")
	keyParts := strings.Split(key, ":")

	if parts[len(parts)-1] == "*" && len(keyParts) >= len(parts) {
		keyParts = append(keyParts[:len(parts)-1], strings.Join(keyParts[len(parts)-1:], ":"))
	}
	if len(parts) != len(keyParts) {
		return false
	}

	for i, part := range parts {
		if part != "*" && part != keyParts[i] {
			return false
		}
	}
	return true
}

// Key builds a cache key of the form "namespace:table:hash", where hash
// identifies payload.
func Key(namespace, table string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return namespace + ":" + table + ":" + hex.EncodeToString(sum[:16])
}
