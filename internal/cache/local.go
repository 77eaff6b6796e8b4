package cache

import (
	"context"
	"sync"
	"time"

	"medchat/internal/core"
)

type localEntry struct {
	profile   core.Profile
	expiresAt time.Time
}

// LocalCache implements ProfileCache with an in-process map.
// This is suitable for single-instance deployments.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	ttl     time.Duration
}

// NewLocalCache creates a new in-memory profile cache.
func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{
		entries: make(map[string]localEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached profile, or nil, nil on a miss.
func (c *LocalCache) Get(_ context.Context, userID string) (*core.Profile, error) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return nil, nil
	}

	// Copy so callers can't mutate the cached value.
	profile := entry.profile
	return &profile, nil
}

// Set stores a profile under its user id.
func (c *LocalCache) Set(_ context.Context, profile *core.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[profile.UserID] = localEntry{
		profile:   *profile,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Delete evicts a profile.
func (c *LocalCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// Close is a no-op for the local cache.
func (c *LocalCache) Close() error {
	return nil
}
