package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vacek-detailing/studio-api/internal/obs"
)

// Cache keys for the public catalog views.
const (
	cacheKeyServices = "studio:catalog:services"
	cacheKeyPackages = "studio:catalog:packages"
)

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			countCache("miss")
			return false, nil
		}
		countCache("error")
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		countCache("error")
		return false, err
	}
	countCache("hit")
	return true, nil
}

func countCache(result string) {
	if obs.CatalogCacheTotal != nil {
		obs.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate drops the public catalog views. Called by the events bus when
// any catalog mutation lands.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKeyServices, cacheKeyPackages).Err()
}
