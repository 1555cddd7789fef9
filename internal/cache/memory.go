package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryCache is the test/development twin of the Redis cache. Expired
// entries are dropped lazily on read.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   func() time.Time
}

type Option func(*InMemoryCache)

// WithClock injects a clock so TTL expiry is testable without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(c *InMemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewInMemory(opts ...Option) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]entry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.clock().After(cached.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	value := append([]byte(nil), cached.value...)
	return value, true, nil
}

func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: c.clock().Add(ttl),
	}
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
