package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of file results kept by NewCache when size
// is zero.
const DefaultCacheSize = 512

// Cache keeps converted files between runs of the same Converter, keyed by
// feature and path. An entry is only reused while the file content hashes to
// the same SHA-256 sum.
//
// Cached results are shared and must not be modified.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type cacheEntry struct {
	sum    string
	result *FileResult
}

// CacheStats contains cache usage statistics.
type CacheStats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewCache creates a cache holding up to size file results.
func NewCache(size int, logger *slog.Logger) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{}
	entries, err := lru.NewWithEvict(size, func(key string, _ cacheEntry) {
		c.evictions.Add(1)
		logger.Debug("evicting cached file", "key", key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

func cacheKey(feature, path string) string {
	return feature + "\x00" + path
}

func checksum(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for path when src is unchanged.
func (c *Cache) Get(feature, path string, src []byte) (*FileResult, bool) {
	e, ok := c.entries.Get(cacheKey(feature, path))
	if !ok || e.sum != checksum(src) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.result, true
}

// Add stores the result converted from src.
func (c *Cache) Add(feature, path string, src []byte, result *FileResult) {
	c.entries.Add(cacheKey(feature, path), cacheEntry{sum: checksum(src), result: result})
}

// Remove drops the entry for path.
func (c *Cache) Remove(feature, path string) {
	c.entries.Remove(cacheKey(feature, path))
}

// Stats returns cache usage statistics.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries:   c.entries.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
