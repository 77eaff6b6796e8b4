// Package cache provides a read-through cache for patient profiles.
// Supports both local (in-memory) and Redis backends for multi-instance
// deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"medchat/internal/core"
)

// DefaultTTL is the default time-to-live for cached profiles. Profiles
// change rarely; an hour bounds staleness if an instance misses an update.
const DefaultTTL = time.Hour

// Config holds profile cache configuration.
type Config struct {
	// Type selects the backend: "local" or "redis"
	Type string

	// RedisURL is the Redis connection URL (e.g. "redis://localhost:6379")
	RedisURL string

	// TTL is the time-to-live for cached profiles (defaults to 1 hour)
	TTL time.Duration
}

// ProfileCache caches patient profiles by user id.
// Implementations must be safe for concurrent use.
type ProfileCache interface {
	// Get retrieves a cached profile.
	// Returns nil, nil on a cache miss.
	Get(ctx context.Context, userID string) (*core.Profile, error)

	// Set stores a profile under its user id.
	Set(ctx context.Context, profile *core.Profile) error

	// Delete evicts a profile. Called on profile update and delete so
	// reads never serve a stale entry past the write.
	Delete(ctx context.Context, userID string) error

	// Close releases any resources held by the cache.
	Close() error
}

// New creates a ProfileCache based on the configuration.
func New(cfg Config) (ProfileCache, error) {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	switch cfg.Type {
	case "", "local":
		return NewLocalCache(ttl), nil
	case "redis":
		return NewRedisCache(RedisConfig{URL: cfg.RedisURL, TTL: ttl})
	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: local, redis)", cfg.Type)
	}
}
