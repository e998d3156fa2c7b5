package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/core/domain"
)

// CurrencyResponse defines the data returned for a single currency.
type CurrencyResponse struct {
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	Symbol           string     `json:"symbol"`
	Rate             string     `json:"rate"`
	Rounding         string     `json:"rounding"`
	Charm            string     `json:"charm"`
	NumberOfDecimals int        `json:"numberOfDecimals"`
	IsDefault        bool       `json:"isDefault"`
	LastUpdated      *time.Time `json:"lastUpdated,omitempty"`
}

// ToCurrencyResponse converts a domain.Currency to its response DTO.
func ToCurrencyResponse(cur domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		Code:             cur.Code,
		Name:             cur.Name,
		Symbol:           cur.Symbol,
		Rate:             cur.Rate.String(),
		Rounding:         cur.Rounding,
		Charm:            cur.Charm.String(),
		NumberOfDecimals: cur.NumberOfDecimals,
		IsDefault:        cur.IsDefault,
		LastUpdated:      cur.LastUpdated,
	}
}

// ToListCurrencyResponse converts a slice of currencies to response DTOs.
func ToListCurrencyResponse(currencies []domain.Currency) []CurrencyResponse {
	res := make([]CurrencyResponse, len(currencies))
	for i, cur := range currencies {
		res[i] = ToCurrencyResponse(cur)
	}
	return res
}

// StoreCurrenciesResponse is the admin overview of the store's currencies.
type StoreCurrenciesResponse struct {
	Available          []CurrencyResponse `json:"available"`
	Enabled            []CurrencyResponse `json:"enabled"`
	Default            CurrencyResponse   `json:"default"`
	CustomerCurrencies []string           `json:"customerCurrencies"`
}

// UpdateEnabledCurrenciesRequest replaces the enabled-currency set.
type UpdateEnabledCurrenciesRequest struct {
	Codes []string `json:"codes" binding:"required,dive,uppercase,len=3"`
}

// CurrencySettingsRequest updates per-currency configuration.
type CurrencySettingsRequest struct {
	ExchangeRateType string  `json:"exchangeRateType" binding:"required,oneof=automatic manual"`
	ManualRate       *string `json:"manualRate,omitempty"`
	PriceRounding    string  `json:"priceRounding" binding:"required"`
	PriceCharm       string  `json:"priceCharm" binding:"required"`
}

// CurrencySettingsResponse returns per-currency configuration.
type CurrencySettingsResponse struct {
	ExchangeRateType string  `json:"exchangeRateType"`
	ManualRate       *string `json:"manualRate,omitempty"`
	PriceRounding    string  `json:"priceRounding"`
	PriceCharm       string  `json:"priceCharm"`
}

// ToCurrencySettingsResponse converts domain settings to the response DTO.
func ToCurrencySettingsResponse(s domain.CurrencySettings) CurrencySettingsResponse {
	resp := CurrencySettingsResponse{
		ExchangeRateType: string(s.ExchangeRateType),
		PriceRounding:    s.PriceRounding,
		PriceCharm:       s.PriceCharm.String(),
	}
	if s.ManualRate != nil {
		raw := s.ManualRate.String()
		resp.ManualRate = &raw
	}
	return resp
}

// SelectedCurrencyResponse reports the active currency for the request.
type SelectedCurrencyResponse struct {
	Currency    CurrencyResponse `json:"currency"`
	HideWidgets bool             `json:"hideWidgets"`
}

// UpdateSelectedCurrencyRequest records an explicit currency choice.
type UpdateSelectedCurrencyRequest struct {
	Code string `json:"code" binding:"required,uppercase,len=3"`
}

// ConvertPriceRequest previews a conversion.
type ConvertPriceRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	PriceType string          `json:"priceType" binding:"required,oneof=product shipping tax coupon exchange_rate"`
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
}

// ConvertPriceResponse returns the converted amount.
type ConvertPriceResponse struct {
	Amount    string `json:"amount"`
	Converted string `json:"converted"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted,omitempty"`
}

// ManualRateNoticesResponse lists currencies needing rate review after a
// base-currency change.
type ManualRateNoticesResponse struct {
	Currencies []string `json:"currencies"`
}
