package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storelens/multicurrency/internal/apperrors"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

type PgxOrderRepository struct {
	pool *pgxpool.Pool
}

// NewPgxOrderRepository creates a read-only repository over order data.
func NewPgxOrderRepository(pool *pgxpool.Pool) portsrepo.OrderReader {
	return &PgxOrderRepository{pool: pool}
}

// FindOrderCurrency returns the currency an order was denominated in.
func (r *PgxOrderRepository) FindOrderCurrency(ctx context.Context, orderID string) (string, error) {
	query := `
		SELECT currency_code
		FROM orders
		WHERE order_id = $1;
	`
	var code string
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to find currency for order %s: %w", orderID, err)
	}
	return code, nil
}

// DistinctCurrenciesUsed returns every currency at least one order used.
// SELECT DISTINCT over the currency index is cheap enough here; an
// existence-check per candidate currency is a possible optimization if the
// orders table grows past what the index serves well.
func (r *PgxOrderRepository) DistinctCurrenciesUsed(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT currency_code
		FROM orders
		ORDER BY currency_code;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query order currencies: %w", err)
	}
	defer rows.Close()

	codes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var code string
		err := row.Scan(&code)
		return code, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect order currencies: %w", err)
	}
	return codes, nil
}
