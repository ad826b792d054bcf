package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/voxcast/forecast-narrator/internal/models"
)

// Cache defines the interface for forecast payload caching implementations.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (models.Payload, bool, error)
	Set(ctx context.Context, key string, value models.Payload, ttl time.Duration) error
}

// Key builds the cache key for a coordinate pair. Coordinates are rounded to
// four decimal places so nearby requests share an entry.
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.4f:%.4f", lat, lng)
}

// InMemoryCache implements Cache using an in-memory map with TTL-based expiration.
// Expired entries are removed on access. Not thread-safe; use with single goroutine or external synchronization.
type InMemoryCache struct {
	data map[string]cacheEntry
}

// cacheEntry stores a cached payload with expiration timestamp.
type cacheEntry struct {
	value     models.Payload
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves a cached payload for the key if present and not expired.
// Returns (data, true, nil) on cache hit, (zero, false, nil) on miss or expiration.
// Expired entries are automatically removed from cache.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.Payload, bool, error) {
	entry, ok := c.data[key]
	if !ok {
		return models.Payload{}, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return models.Payload{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores a payload in cache with the specified TTL duration.
// Entry expires after TTL elapses and will be removed on next Get access.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.Payload, ttl time.Duration) error {
	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
