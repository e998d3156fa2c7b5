package repositories

import "context"

// OrderReader exposes the read-only order data the pricing engine needs. The
// engine never constructs or mutates orders.
type OrderReader interface {
	// FindOrderCurrency returns the currency code an order was denominated
	// in. Returns apperrors.ErrNotFound for unknown order IDs.
	FindOrderCurrency(ctx context.Context, orderID string) (string, error)

	// DistinctCurrenciesUsed returns every currency code at least one order
	// has been placed in. Query strategy (existence check per candidate
	// currency vs. a full scan) is the adapter's concern.
	DistinctCurrenciesUsed(ctx context.Context) ([]string, error)
}
