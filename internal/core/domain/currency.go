package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is used for currencies the locale dataset does not know.
const DefaultDecimals = 2

// Currency is a snapshot of one transactable currency, expressed relative to
// the store's base currency. Currency values are rebuilt on every
// initialization cycle; they are never mutated in place.
type Currency struct {
	Code             string           `json:"code"`   // 3-letter uppercase ISO 4217 code
	Name             string           `json:"name"`   // e.g., "Euro"
	Symbol           string           `json:"symbol"` // e.g., "€"
	Rate             decimal.Decimal  `json:"rate"`   // units of this currency per 1 unit of the base currency
	Rounding         string           `json:"rounding"`
	Charm            decimal.Decimal  `json:"charm"`
	NumberOfDecimals int              `json:"numberOfDecimals"`
	IsDefault        bool             `json:"isDefault"`
	LastUpdated      *time.Time       `json:"lastUpdated,omitempty"`
}

// RoundingIncrement parses the string-encoded rounding setting. A value of
// "0", "none", or anything unparsable disables rounding (zero increment).
func (c Currency) RoundingIncrement() decimal.Decimal {
	if c.Rounding == "" || c.Rounding == "none" {
		return decimal.Zero
	}
	inc, err := decimal.NewFromString(c.Rounding)
	if err != nil || inc.IsNegative() {
		return decimal.Zero
	}
	return inc
}

// DefaultRounding returns the rounding increment used for a currency that has
// no persisted rounding setting. Zero-decimal currencies round to whole
// hundreds, everything else to whole units.
func DefaultRounding(numberOfDecimals int) string {
	if numberOfDecimals == 0 {
		return "100"
	}
	return "1.00"
}
