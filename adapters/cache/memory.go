// Package cache provides RevocationCache implementations: an in-memory TTL
// store with lazy plus periodic eviction, and a Redis-backed store.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/garmlabs/garm/core"
	"github.com/garmlabs/garm/ports"
)

// DefaultSweepInterval is how often the janitor scans for expired entries.
const DefaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	status    core.TokenStatus
	expiresAt time.Time
}

// MemoryCache is an in-memory RevocationCache. Expired entries are removed
// lazily on Get and by a periodic janitor, which bounds growth from keys
// that are never looked up again.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates the cache and starts its janitor. Pass a zero
// interval to use DefaultSweepInterval. Close stops the janitor.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}

	go c.janitor(sweepInterval)

	return c
}

var _ ports.RevocationCache = (*MemoryCache)(nil)

// Set upserts the entry; last writer wins.
func (c *MemoryCache) Set(ctx context.Context, key string, status core.TokenStatus, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		status:    status,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Get treats an expired entry as unknown and deletes it synchronously.
func (c *MemoryCache) Get(ctx context.Context, key string) (core.TokenStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}

	if !entry.expiresAt.After(time.Now()) {
		delete(c.entries, key)
		return "", false, nil
	}

	return entry.status, true, nil
}

// Delete removes the entry if present.
func (c *MemoryCache) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)

	return ok, nil
}

// Close stops the janitor. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	return nil
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep holds the lock only for the duration of the delete scan.
func (c *MemoryCache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}
