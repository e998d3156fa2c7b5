package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

const cartTotalsKeyPrefix = "cart_totals:"

// RedisCartRecalculator invalidates the visitor's cached cart totals so the
// storefront recomputes them in the newly selected currency on next read.
type RedisCartRecalculator struct {
	client *redis.Client
}

// NewRedisCartRecalculator creates the cart-totals invalidator.
func NewRedisCartRecalculator(client *redis.Client) portsrepo.CartRecalculator {
	return &RedisCartRecalculator{client: client}
}

// Recalculate drops the cached totals for the visitor's cart.
func (r *RedisCartRecalculator) Recalculate(ctx context.Context, sessionID, userID string) error {
	keys := make([]string, 0, 2)
	if sessionID != "" {
		keys = append(keys, cartTotalsKeyPrefix+sessionID)
	}
	if userID != "" {
		keys = append(keys, cartTotalsKeyPrefix+"user:"+userID)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cart totals: %w", err)
	}
	return nil
}
