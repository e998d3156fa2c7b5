package repositories

import "context"

// SettingsReader defines read operations on the key-value settings store.
type SettingsReader interface {
	// GetSetting retrieves the raw value for a settings key.
	// Returns apperrors.ErrNotFound when the key has never been written.
	GetSetting(ctx context.Context, key string) (string, error)
}

// SettingsWriter defines write operations on the key-value settings store.
type SettingsWriter interface {
	// SetSetting upserts the value for a settings key.
	SetSetting(ctx context.Context, key, value string) error

	// DeleteSetting removes a settings key. Deleting an absent key is not an
	// error.
	DeleteSetting(ctx context.Context, key string) error
}

// SettingsRepositoryFacade combines all settings-store interfaces.
type SettingsRepositoryFacade interface {
	SettingsReader
	SettingsWriter
}
