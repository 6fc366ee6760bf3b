package index

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds search results for a single index.
//
// Every Clear bumps a generation counter. Writers capture the generation
// before they start a remote call and only store their result if no Clear
// happened in between, so a lookup issued after Clear never sees a value
// fetched before it.
type Cache struct {
	mu         sync.Mutex
	entries    *expirable.LRU[string, *Results]
	generation uint64
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	TTL      time.Duration // zero keeps entries until evicted or cleared
	MaxItems int
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:      0,
		MaxItems: 1000,
	}
}

// NewCache creates a new cache with the given configuration.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultCacheConfig().MaxItems
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}

	return &Cache{
		entries: expirable.NewLRU[string, *Results](cfg.MaxItems, nil, cfg.TTL),
	}
}

// Get retrieves results from the cache.
func (c *Cache) Get(key string) (*Results, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Generation returns the current clear generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfGeneration stores results only if the cache has not been cleared
// since gen was read. It reports whether the value was stored.
func (c *Cache) SetIfGeneration(key string, value *Results, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.entries.Add(key, value)
	return true
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
	c.generation++
}

// Len returns the number of items in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
