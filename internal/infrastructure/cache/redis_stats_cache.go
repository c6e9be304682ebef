// Package cache provides the redis-backed cache for cashier dashboard stats.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinic/backend/internal/application/cashier"
	"github.com/clinic/backend/internal/infrastructure/config"
)

// RedisStatsCache implements cashier.StatsCache using Redis. Values are
// stored JSON-encoded under their stats key with a short TTL. Only
// pre-aggregated dashboard figures land here; visit debts are never cached.
type RedisStatsCache struct {
	client *redis.Client
}

var _ cashier.StatsCache = (*RedisStatsCache)(nil)

// NewRedisStatsCache creates a new Redis-backed stats cache
func NewRedisStatsCache(cfg config.RedisConfig) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStatsCache{client: client}, nil
}

// NewRedisStatsCacheWithClient creates a cache with an existing Redis client
func NewRedisStatsCacheWithClient(client *redis.Client) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

// Get loads the cached value for key into dest. A missing key is reported
// as (false, nil), not as an error.
func (c *RedisStatsCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key with the given TTL
func (c *RedisStatsCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}
