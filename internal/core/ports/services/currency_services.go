package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/core/domain"
)

// EnabledCurrencyLister is the narrow read surface the selection resolver
// needs from the conversion engine.
type EnabledCurrencyLister interface {
	// GetEnabledCurrencies returns the merchant-enabled currencies, default
	// currency first.
	GetEnabledCurrencies(ctx context.Context) ([]domain.Currency, error)

	// GetDefaultCurrency returns the store's base currency (rate 1.0).
	GetDefaultCurrency(ctx context.Context) (domain.Currency, error)
}

// ConversionReaderSvc defines read operations on the conversion engine.
type ConversionReaderSvc interface {
	EnabledCurrencyLister

	// GetAvailableCurrencies returns every currency the store could enable,
	// ordered by display name. The default currency is always included.
	GetAvailableCurrencies(ctx context.Context) ([]domain.Currency, error)

	// GetSelectedCurrency returns the active currency for the request,
	// falling back to the default for unknown or disabled codes.
	GetSelectedCurrency(ctx context.Context, state *domain.RequestState) (domain.Currency, error)

	// GetPrice converts an amount into the selected currency according to
	// the price type's adjustment rules. It never fails; on any resolution
	// problem the amount is returned unchanged.
	GetPrice(ctx context.Context, state *domain.RequestState, amount decimal.Decimal, priceType domain.PriceType) decimal.Decimal

	// GetProductPrice converts a product price, first consulting the
	// compatibility policy; vetoed conversions return the amount unchanged.
	GetProductPrice(ctx context.Context, state *domain.RequestState, product domain.Product, amount decimal.Decimal) decimal.Decimal

	// GetCouponAmount converts a coupon amount, first consulting the
	// compatibility policy.
	GetCouponAmount(ctx context.Context, state *domain.RequestState, coupon domain.Coupon, amount decimal.Decimal) decimal.Decimal

	// GetRawConversion converts between two enabled currencies via their
	// rates relative to the default currency.
	GetRawConversion(ctx context.Context, amount decimal.Decimal, toCode, fromCode string) (decimal.Decimal, error)

	// GetSingleCurrencySettings returns the persisted (or freshly defaulted)
	// per-currency configuration.
	GetSingleCurrencySettings(ctx context.Context, code string) (domain.CurrencySettings, error)

	// GetAllCustomerCurrencies returns every currency customers have
	// transacted in.
	GetAllCustomerCurrencies(ctx context.Context) ([]string, error)

	// GetManualRateNotices returns the currencies flagged for merchant
	// review after a base-currency change.
	GetManualRateNotices(ctx context.Context) ([]string, error)
}

// ConversionWriterSvc defines write operations on the conversion engine.
type ConversionWriterSvc interface {
	// SetEnabledCurrencies replaces the enabled set. Unknown codes fail with
	// apperrors.ErrInvalidCurrency; settings of removed currencies are
	// deleted.
	SetEnabledCurrencies(ctx context.Context, codes []string) error

	// UpdateSelectedCurrency validates and persists an explicit selection.
	UpdateSelectedCurrency(ctx context.Context, state *domain.RequestState, code string) error

	// UpdateSingleCurrencySettings persists per-currency configuration.
	UpdateSingleCurrencySettings(ctx context.Context, code string, settings domain.CurrencySettings) error

	// ClearManualRateNotices dismisses the base-currency-change review
	// notice.
	ClearManualRateNotices(ctx context.Context) error
}

// ConversionSvcFacade combines all conversion engine interfaces.
type ConversionSvcFacade interface {
	ConversionReaderSvc
	ConversionWriterSvc
}
