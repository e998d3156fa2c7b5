package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storelens/multicurrency/internal/apperrors"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

const rateCacheKeyPrefix = "currency_rates:"

type RedisRateCache struct {
	client *redis.Client
}

// NewRedisRateCache creates a rate-table cache keyed by base currency.
func NewRedisRateCache(client *redis.Client) portsrepo.RateCache {
	return &RedisRateCache{client: client}
}

// GetRates returns the cached snapshot for a base currency.
func (c *RedisRateCache) GetRates(ctx context.Context, baseCurrency string) (*portsrepo.CachedRates, error) {
	raw, err := c.client.Get(ctx, rateCacheKeyPrefix+baseCurrency).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read rate cache for %s: %w", baseCurrency, err)
	}

	var snapshot portsrepo.CachedRates
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode rate cache for %s: %w", baseCurrency, err)
	}
	return &snapshot, nil
}

// SetRates stores a snapshot. A zero TTL keeps the entry indefinitely;
// freshness is then judged by the snapshot's FetchedAt so stale data stays
// available as a provider-outage fallback.
func (c *RedisRateCache) SetRates(ctx context.Context, baseCurrency string, rates *portsrepo.CachedRates, ttl time.Duration) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode rate cache for %s: %w", baseCurrency, err)
	}
	if err := c.client.Set(ctx, rateCacheKeyPrefix+baseCurrency, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate cache for %s: %w", baseCurrency, err)
	}
	return nil
}

// DeleteRates drops the snapshot for a base currency.
func (c *RedisRateCache) DeleteRates(ctx context.Context, baseCurrency string) error {
	if err := c.client.Del(ctx, rateCacheKeyPrefix+baseCurrency).Err(); err != nil {
		return fmt.Errorf("failed to delete rate cache for %s: %w", baseCurrency, err)
	}
	return nil
}
