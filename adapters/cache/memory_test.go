package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garmlabs/garm/core"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tok", core.StatusValid, time.Minute))

	status, found, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.StatusValid, status)

	_, found, err = c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheOverwrite(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tok", core.StatusValid, time.Minute))
	require.NoError(t, c.Set(ctx, "tok", core.StatusBlacklisted, time.Hour))

	status, found, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, core.StatusBlacklisted, status)
}

func TestMemoryCacheLazyExpiry(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tok", core.StatusValid, 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	// Expired Valid means unknown, not valid, and the read purges the entry.
	_, found, err := c.Get(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, found)

	c.mu.RLock()
	_, stillThere := c.entries["tok"]
	c.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tok", core.StatusValid, time.Minute))

	deleted, err := c.Delete(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.Delete(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryCacheJanitorSweep(t *testing.T) {
	c := NewMemoryCache(20 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", core.StatusValid, 5*time.Millisecond))
	require.NoError(t, c.Set(ctx, "long", core.StatusValid, time.Hour))

	// The short entry must be purged within one sweep interval even though
	// nothing ever reads it again.
	assert.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		_, ok := c.entries["short"]
		return !ok
	}, time.Second, 10*time.Millisecond)

	c.mu.RLock()
	_, ok := c.entries["long"]
	c.mu.RUnlock()
	assert.True(t, ok)
}

func TestMemoryCacheCloseIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
