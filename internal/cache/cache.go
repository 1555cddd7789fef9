// Package cache is the injected TTL cache behind list-level queries. It has
// explicit get/set/invalidate operations and is torn down with the process
// that owns it; nothing in this package is ambient global state.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque bytes under string keys with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}
