package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garmlabs/garm/core"
	"github.com/garmlabs/garm/ports"
)

// RedisCache is a Redis-backed RevocationCache. Redis owns entry expiry
// natively, so there is no janitor to run.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client. The caller owns the client's
// lifecycle; Close here is a no-op so the client can be shared with the
// event publisher.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "garm:token:",
	}
}

var _ ports.RevocationCache = (*RedisCache)(nil)

// Set upserts the status under the prefixed key with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, status core.TokenStatus, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, string(status), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set token status: %w", err)
	}
	return nil
}

// Get returns found=false on a missing key and an error on backend failure;
// callers treat the latter as "cache unavailable".
func (c *RedisCache) Get(ctx context.Context, key string) (core.TokenStatus, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get token status: %w", err)
	}

	return core.TokenStatus(value), true, nil
}

// Delete removes the entry and reports whether it existed.
func (c *RedisCache) Delete(ctx context.Context, key string) (bool, error) {
	deleted, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete token status: %w", err)
	}
	return deleted > 0, nil
}

// Close is a no-op; the Redis client is owned by the process wiring.
func (c *RedisCache) Close() error {
	return nil
}
