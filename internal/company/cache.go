package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps profile reads off the database. The profile changes rarely and
// is looked up on every printed document header.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(orgID int64) string {
	return fmt.Sprintf("company:profile:%d", orgID)
}

// Get returns the cached profile, or ok=false on miss.
func (c *Cache) Get(ctx context.Context, orgID int64) (Profile, bool) {
	if c == nil || c.client == nil {
		return Profile{}, false
	}
	raw, err := c.client.Get(ctx, cacheKey(orgID)).Bytes()
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

// Set stores the profile with the configured TTL.
func (c *Cache) Set(ctx context.Context, p Profile) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(p.OrgID), raw, c.ttl).Err()
}

// Invalidate drops the cached profile after a save.
func (c *Cache) Invalidate(ctx context.Context, orgID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, cacheKey(orgID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
