// Package cache provides the response caches used by the reporting API.
package cache

import (
	"fmt"

	"github.com/supplylens/supplylens/internal/domain"
)

// New creates a cache based on configuration.
// "memory" returns a local LRU cache, "redis" a shared Redis cache.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(cfg.LocalMaxSize, cfg.LocalTTL), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
