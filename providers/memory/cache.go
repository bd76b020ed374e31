package memory

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/tck"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Cache is an in-memory cache with lazy wall-clock expiry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = entry
	return nil
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// CacheFixture builds a fixture over NewCache, one cache per clause.
func CacheFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*Cache)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			cache := NewCache()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: cache}, nil
			}, nil
		},
	}
}

var _ primitives.Cache = (*Cache)(nil)
