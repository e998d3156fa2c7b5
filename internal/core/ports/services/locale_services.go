package services

import (
	"context"

	"github.com/storelens/multicurrency/internal/core/domain"
)

// LocaleSvc resolves currency formatting and naming from the static locale
// dataset.
type LocaleSvc interface {
	// GetFormat returns the formatting spec for a currency code. The second
	// return value is false when the code is absent from the dataset and the
	// documented fallback spec was returned instead.
	GetFormat(ctx context.Context, currencyCode string) (domain.LocaleFormatSpec, bool)

	// CurrencyName returns the display name for a currency code, falling
	// back to the code itself when unknown.
	CurrencyName(ctx context.Context, currencyCode string) string

	// CurrencySymbol returns the symbol for a currency code, falling back to
	// the code itself when unknown.
	CurrencySymbol(ctx context.Context, currencyCode string) string

	// CurrencyForCountry maps an ISO country code to its currency code, or
	// empty when unmapped.
	CurrencyForCountry(ctx context.Context, countryCode string) string
}
