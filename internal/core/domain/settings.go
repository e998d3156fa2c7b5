package domain

import "github.com/shopspring/decimal"

// RateMode selects how a currency's exchange rate is resolved.
type RateMode string

const (
	// RateModeAutomatic uses the latest rate fetched from the rate provider.
	RateModeAutomatic RateMode = "automatic"
	// RateModeManual uses a merchant-fixed rate instead of provider data.
	RateModeManual RateMode = "manual"
)

// CurrencySettings is the persisted per-currency configuration.
type CurrencySettings struct {
	ExchangeRateType RateMode         `json:"exchangeRateType"`
	ManualRate       *decimal.Decimal `json:"manualRate,omitempty"`
	PriceRounding    string           `json:"priceRounding"`
	PriceCharm       decimal.Decimal  `json:"priceCharm"`
}

// DefaultCurrencySettings returns the settings a freshly enabled currency
// starts with: automatic rates, decimals-appropriate rounding, no charm.
func DefaultCurrencySettings(numberOfDecimals int) CurrencySettings {
	return CurrencySettings{
		ExchangeRateType: RateModeAutomatic,
		PriceRounding:    DefaultRounding(numberOfDecimals),
		PriceCharm:       decimal.Zero,
	}
}
