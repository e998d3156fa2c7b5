package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider fetches current exchange rates from the upstream rate API.
// Any failure is treated by callers as "no fresh data", never surfaced to
// price display.
type RateProvider interface {
	// FetchRates returns the rates for every currency the provider supports,
	// expressed relative to the given base currency.
	FetchRates(ctx context.Context, baseCurrency string) (map[string]decimal.Decimal, error)
}

// CachedRates is a rate-table snapshot with its fetch timestamp.
type CachedRates struct {
	Rates     map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

// RateCache stores rate-table snapshots per base currency with a TTL.
type RateCache interface {
	// GetRates returns the cached snapshot, or apperrors.ErrNotFound on miss.
	GetRates(ctx context.Context, baseCurrency string) (*CachedRates, error)

	// SetRates stores a snapshot with the given TTL.
	SetRates(ctx context.Context, baseCurrency string, rates *CachedRates, ttl time.Duration) error

	// DeleteRates drops the snapshot for a base currency. Used when the
	// store's base currency changes and all relative rates become invalid.
	DeleteRates(ctx context.Context, baseCurrency string) error
}
