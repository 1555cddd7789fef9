package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	c := NewInMemory(WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, "records", []byte(`["a"]`), 10*time.Minute))

	t.Run("hit inside the TTL", func(t *testing.T) {
		value, ok, err := c.Get(ctx, "records")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte(`["a"]`), value)
	})

	t.Run("still warm at the boundary", func(t *testing.T) {
		now = now.Add(10 * time.Minute)
		_, ok, err := c.Get(ctx, "records")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("miss after expiry", func(t *testing.T) {
		now = now.Add(time.Second)
		_, ok, err := c.Get(ctx, "records")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired entry stays gone even if the clock rewinds", func(t *testing.T) {
		now = now.Add(-time.Hour)
		_, ok, err := c.Get(ctx, "records")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInMemoryCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()

	require.NoError(t, c.Set(ctx, "records", []byte("x"), time.Hour))
	require.NoError(t, c.Invalidate(ctx, "records"))

	_, ok, err := c.Get(ctx, "records")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("invalidating a missing key is a no-op", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, "missing"))
	})
}

func TestInMemoryCache_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()

	require.NoError(t, c.Set(ctx, "k", []byte("old"), time.Hour))
	require.NoError(t, c.Set(ctx, "k", []byte("new"), time.Hour))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}

func TestInMemoryCache_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory()

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), time.Hour))
	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	value[0] = 'z'

	again, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), again, "caller mutation does not leak into the cache")
}
