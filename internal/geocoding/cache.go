package geocoding

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/logger"
)

// Cache stores resolved coordinates keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (domain.Coordinate, bool)
	Set(ctx context.Context, key string, c domain.Coordinate)
}

// Store is a shared, out-of-process cache tier (e.g. Redis).
type Store interface {
	GetCoordinate(ctx context.Context, key string) (*domain.Coordinate, error)
	SetCoordinate(ctx context.Context, key string, c domain.Coordinate) error
}

// CacheKey normalizes an address and language into a cache key.
func CacheKey(address, language string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	return normalized + "|" + strings.ToLower(strings.TrimSpace(language))
}

// MemoryCache is an append-only in-process cache. Entries never expire;
// addresses are low-cardinality and stable.
type MemoryCache struct {
	entries sync.Map
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.Coordinate, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return domain.Coordinate{}, false
	}
	return v.(domain.Coordinate), true
}

func (c *MemoryCache) Set(_ context.Context, key string, coord domain.Coordinate) {
	c.entries.Store(key, coord)
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every entry.
func (c *MemoryCache) Reset() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}

// TieredCache checks the in-process cache first and falls back to a shared
// store. Store failures are logged and treated as misses.
type TieredCache struct {
	memory *MemoryCache
	store  Store
	log    *zap.Logger
}

// NewTieredCache creates a TieredCache. A nil store degrades to memory only.
func NewTieredCache(memory *MemoryCache, store Store, log *zap.Logger) *TieredCache {
	return &TieredCache{memory: memory, store: store, log: logger.OrNop(log)}
}

func (c *TieredCache) Get(ctx context.Context, key string) (domain.Coordinate, bool) {
	if coord, ok := c.memory.Get(ctx, key); ok {
		return coord, true
	}
	if c.store == nil {
		return domain.Coordinate{}, false
	}

	coord, err := c.store.GetCoordinate(ctx, key)
	if err != nil {
		c.log.Warn("geocode store lookup failed", logger.String("key", key), logger.Err(err))
		return domain.Coordinate{}, false
	}
	if coord == nil {
		return domain.Coordinate{}, false
	}
	c.memory.Set(ctx, key, *coord)
	return *coord, true
}

func (c *TieredCache) Set(ctx context.Context, key string, coord domain.Coordinate) {
	c.memory.Set(ctx, key, coord)
	if c.store == nil {
		return
	}
	if err := c.store.SetCoordinate(ctx, key, coord); err != nil {
		c.log.Warn("geocode store write failed", logger.String("key", key), logger.Err(err))
	}
}
