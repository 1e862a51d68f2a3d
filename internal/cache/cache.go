// Package cache implements the read-through cache for short code resolution
// on top of Redis. The cache is never a durability guarantee: entries are a
// time-bounded projection of the persistent store and self-expire via Redis
// per-key TTLs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetURL when no entry exists for a key. A miss is a
// normal outcome and must be distinguished from a connectivity fault, which
// surfaces as any other error.
var ErrMiss = errors.New("cache miss")

// urlKeyPrefix namespaces resolution entries so future cache usage cannot
// collide with them.
const urlKeyPrefix = "url:"

// Cache wraps a pooled Redis client. The client multiplexes connections
// internally, so cache traffic is not serialized behind a single handle.
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{
		rdb: rdb,
	}
}

func urlKey(shortCode string) string {
	return urlKeyPrefix + shortCode
}

// GetURL looks up the cached destination for a short code. It returns ErrMiss
// for a cold key.
func (c *Cache) GetURL(ctx context.Context, shortCode string) (string, error) {
	const op = "cache.Cache.GetURL"

	val, err := c.rdb.Get(ctx, urlKey(shortCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrMiss)
		}

		return "", fmt.Errorf("%s: failed to get cached url: %w", op, err)
	}

	return val, nil
}

// SetURL stores the destination for a short code with the given TTL,
// overwriting any existing entry.
func (c *Cache) SetURL(ctx context.Context, shortCode, originalURL string, ttl time.Duration) error {
	const op = "cache.Cache.SetURL"

	if err := c.rdb.Set(ctx, urlKey(shortCode), originalURL, ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to cache url: %w", op, err)
	}

	return nil
}

// Ping probes Redis connectivity, used by the health endpoint.
func (c *Cache) Ping(ctx context.Context) error {
	const op = "cache.Cache.Ping"

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%s: cache is unreachable: %w", op, err)
	}

	return nil
}
