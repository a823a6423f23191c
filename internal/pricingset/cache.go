package pricingset

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spontis/backend-spontis/internal/cache"
	"github.com/spontis/backend-spontis/internal/obs"
)

// Cache keeps the active pricing set in Redis so quote requests do not hit
// the database on every call.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetActive returns the cached active set when present.
func (c *Cache) GetActive(ctx context.Context) (Set, bool) {
	if c == nil || c.client == nil {
		return Set{}, false
	}
	data, err := c.client.Get(ctx, cache.KeyActivePricingSet()).Bytes()
	if err != nil {
		if err != redis.Nil && obs.ActiveSetCacheTotal != nil {
			obs.ActiveSetCacheTotal.WithLabelValues("error").Inc()
		}
		return Set{}, false
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, false
	}
	return set, true
}

// SetActive stores the active set with the configured TTL.
func (c *Cache) SetActive(ctx context.Context, set Set) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cache.KeyActivePricingSet(), data, c.ttl).Err()
}

// Invalidate drops the cached active set.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cache.KeyActivePricingSet()).Err()
}
