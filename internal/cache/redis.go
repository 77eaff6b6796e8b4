package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"medchat/internal/core"
)

// DefaultKeyPrefix namespaces profile keys in a shared Redis instance.
const DefaultKeyPrefix = "medchat:profile:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// KeyPrefix namespaces profile keys (defaults to "medchat:profile:")
	KeyPrefix string

	// TTL is the time-to-live for cached profiles
	TTL time.Duration
}

// RedisCache implements ProfileCache using Redis for distributed storage.
// This is suitable for multi-instance deployments behind a load balancer.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCache creates a new Redis-based profile cache.
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

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	slog.Info("redis profile cache connected", "key_prefix", keyPrefix, "ttl", ttl)

	return &RedisCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}, nil
}

// Get retrieves a cached profile from Redis, or nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, userID string) (*core.Profile, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+userID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No cached profile, not an error
		}
		return nil, fmt.Errorf("failed to get profile from redis: %w", err)
	}

	var profile core.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile from redis: %w", err)
	}

	return &profile, nil
}

// Set stores a profile in Redis.
func (c *RedisCache) Set(ctx context.Context, profile *core.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+profile.UserID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set profile in redis: %w", err)
	}

	return nil
}

// Delete evicts a profile from Redis.
func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.keyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete profile from redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
