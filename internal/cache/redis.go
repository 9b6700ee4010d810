package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the default key used to store the snapshot in Redis.
	DefaultRedisKey = "modelhub:snapshot"

	// DefaultRedisTTL is the default time-to-live for cached data (24 hours).
	// This ensures stale data eventually expires if the application stops updating.
	DefaultRedisTTL = 24 * time.Hour
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Key is the Redis key to store the snapshot (defaults to "modelhub:snapshot")
	Key string

	// TTL is the time-to-live for cached data (defaults to 24 hours)
	TTL time.Duration
}

// RedisCache implements Cache using Redis for distributed storage.
// This is suitable for multi-instance deployments behind a load balancer.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-based cache.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultRedisTTL
	}

	slog.Info("redis snapshot cache connected", "key", key, "ttl", ttl)

	return &RedisCache{client: client, key: key, ttl: ttl}, nil
}

// Get retrieves the snapshot from Redis.
func (c *RedisCache) Get(ctx context.Context) (*SnapshotData, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // No cache yet, not an error
		}
		return nil, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}

	var snap SnapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}

	return &snap, nil
}

// Set stores the snapshot in Redis with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, snap *SnapshotData) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot in redis: %w", err)
	}

	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
