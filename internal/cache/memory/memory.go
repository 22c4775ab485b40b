package memory

import (
	"context"
	"sync"

	"github.com/mcoot/leaderboard/internal/cache"
)

// Cache is an in-memory cache.Cache
type Cache struct {
	mu     sync.RWMutex
	values map[string]string
}

// Ensure Cache implements cache.Cache
var _ cache.Cache = (*Cache)(nil)

// New creates an empty in-memory cache
func New() *Cache {
	return &Cache{values: make(map[string]string)}
}

func (c *Cache) Read(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *Cache) Write(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *Cache) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}
