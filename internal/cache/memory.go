package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// MemoryCache is a local LRU cache with per-entry TTL. Entries past
// their deadline count as misses and are dropped on read.
type MemoryCache struct {
	entries    *lru.Cache
	defaultTTL time.Duration
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a local cache holding at most maxSize entries.
func NewMemoryCache(maxSize int, defaultTTL time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	// lru.New only fails for a non-positive size, which is guarded above.
	entries, _ := lru.New(maxSize)

	return &MemoryCache{
		entries:    entries,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value. A miss or an expired entry returns nil, nil.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, ok := c.entries.Get(key)
	if !ok {
		return nil, nil
	}

	entry := val.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, nil
	}
	return entry.value, nil
}

// Set stores a value. A non-positive ttl falls back to the default.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.Add(key, &memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Ping checks cache health.
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close cleans up the cache.
func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

// Stats returns the current entry count.
func (c *MemoryCache) Stats() (size int) {
	return c.entries.Len()
}
