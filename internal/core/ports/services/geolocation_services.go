package services

import (
	"context"

	"github.com/storelens/multicurrency/internal/core/domain"
)

// GeolocationSvc resolves a request's originating country and its currency.
type GeolocationSvc interface {
	// ResolveCountry returns the ISO country code for the request, or empty
	// for bot traffic. Geolocation failures fall back to the configured
	// default store country.
	ResolveCountry(ctx context.Context, signals domain.RequestSignals) string

	// ResolveCurrency maps the resolved country to a currency code, or empty
	// when no mapping exists (caller falls back to the default currency).
	ResolveCurrency(ctx context.Context, signals domain.RequestSignals) string
}
