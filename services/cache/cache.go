package cache

import (
	"errors"
	"time"

	"sjsage522/couponradar/logger"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// New returns a memcache-backed service when addr is set, otherwise an in-memory one
func New(addr string) CacheService {
	log := logger.ForCache()
	if addr == "" {
		log.Debug().Msg("Using in-memory cache")
		return NewMemoryCache()
	}
	log.Info().Str("addr", addr).Msg("Using memcache")
	return NewMemcacheService(addr)
}
