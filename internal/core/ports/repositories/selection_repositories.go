package repositories

import "context"

// SessionStore persists one scalar value (the selected currency code) per
// anonymous visitor session. Last write wins; concurrent overwrites are an
// accepted race.
type SessionStore interface {
	// GetSelectedCurrency returns the stored code, or apperrors.ErrNotFound.
	GetSelectedCurrency(ctx context.Context, sessionID string) (string, error)

	// SetSelectedCurrency stores the code for the session.
	SetSelectedCurrency(ctx context.Context, sessionID, code string) error
}

// UserMetaStore persists one scalar value per authenticated user.
type UserMetaStore interface {
	// GetSelectedCurrency returns the stored code, or apperrors.ErrNotFound.
	GetSelectedCurrency(ctx context.Context, userID string) (string, error)

	// SetSelectedCurrency stores the code as user metadata.
	SetSelectedCurrency(ctx context.Context, userID, code string) error
}

// CartRecalculator triggers a recomputation of the visitor's cart totals
// after the active currency changed.
type CartRecalculator interface {
	Recalculate(ctx context.Context, sessionID, userID string) error
}
