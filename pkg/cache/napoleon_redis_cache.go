// Package cache provides the redis-backed cache implementation.
package cache

import (
	"context"
	"errors"
	"time"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements out.Cache on a redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a redis-backed cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the raw bytes for a key. Missing keys map to ErrNotFound.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

// Set stores raw bytes under a key with a TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists reports whether a key is present.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, key).Result()
	return result > 0, err
}

// GetString returns the string value for a key. Missing keys map to
// ErrNotFound.
func (c *RedisCache) GetString(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	return value, err
}

// SetString stores a string value under a key with a TTL.
func (c *RedisCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Ensure interface compliance
var _ out.Cache = (*RedisCache)(nil)
