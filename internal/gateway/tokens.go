package gateway

import (
	"context"
	"sync"

	"github.com/mcoot/leaderboard/internal/cache"
)

// TokenStore keeps the bearer token issued by the last identity call
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
}

// MemoryTokens holds the token for the life of the process
type MemoryTokens struct {
	mu    sync.RWMutex
	token string
}

func (t *MemoryTokens) Token(_ context.Context) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token, nil
}

func (t *MemoryTokens) SetToken(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	return nil
}

// CacheTokens persists the token in a local cache under a fixed key
type CacheTokens struct {
	cache cache.Cache
	key   string
}

// NewCacheTokens creates a TokenStore backed by c
func NewCacheTokens(c cache.Cache, key string) *CacheTokens {
	return &CacheTokens{cache: c, key: key}
}

func (t *CacheTokens) Token(ctx context.Context) (string, error) {
	token, _, err := t.cache.Read(ctx, t.key)
	return token, err
}

func (t *CacheTokens) SetToken(ctx context.Context, token string) error {
	return t.cache.Write(ctx, t.key, token)
}
