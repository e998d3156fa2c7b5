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

type PgxSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPgxSettingsRepository creates a repository over the key-value settings
// table.
func NewPgxSettingsRepository(pool *pgxpool.Pool) portsrepo.SettingsRepositoryFacade {
	return &PgxSettingsRepository{pool: pool}
}

// GetSetting retrieves the raw value for a key.
func (r *PgxSettingsRepository) GetSetting(ctx context.Context, key string) (string, error) {
	query := `
		SELECT setting_value
		FROM store_settings
		WHERE setting_key = $1;
	`
	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts the value for a key.
func (r *PgxSettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO store_settings (setting_key, setting_value, last_updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = EXCLUDED.setting_value,
			last_updated_at = EXCLUDED.last_updated_at;
	`
	_, err := r.pool.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a key. Deleting an absent key is not an error.
func (r *PgxSettingsRepository) DeleteSetting(ctx context.Context, key string) error {
	query := `DELETE FROM store_settings WHERE setting_key = $1;`
	_, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
