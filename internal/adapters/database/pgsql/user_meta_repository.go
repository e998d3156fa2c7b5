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

const userMetaSelectedCurrencyKey = "selected_currency"

type PgxUserMetaRepository struct {
	pool *pgxpool.Pool
}

// NewPgxUserMetaRepository creates a store for per-user scalar metadata.
func NewPgxUserMetaRepository(pool *pgxpool.Pool) portsrepo.UserMetaStore {
	return &PgxUserMetaRepository{pool: pool}
}

// GetSelectedCurrency returns the user's stored currency selection.
func (r *PgxUserMetaRepository) GetSelectedCurrency(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT meta_value
		FROM user_meta
		WHERE user_id = $1 AND meta_key = $2;
	`
	var code string
	err := r.pool.QueryRow(ctx, query, userID, userMetaSelectedCurrencyKey).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read selected currency for user %s: %w", userID, err)
	}
	return code, nil
}

// SetSelectedCurrency stores the user's currency selection. Last write wins.
func (r *PgxUserMetaRepository) SetSelectedCurrency(ctx context.Context, userID, code string) error {
	query := `
		INSERT INTO user_meta (user_id, meta_key, meta_value, last_updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, meta_key) DO UPDATE SET
			meta_value = EXCLUDED.meta_value,
			last_updated_at = EXCLUDED.last_updated_at;
	`
	_, err := r.pool.Exec(ctx, query, userID, userMetaSelectedCurrencyKey, code)
	if err != nil {
		return fmt.Errorf("failed to save selected currency for user %s: %w", userID, err)
	}
	return nil
}
