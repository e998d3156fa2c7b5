package utils

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/core/domain"
)

// FormatPrice renders an amount as a display string using a currency's
// locale formatting spec and symbol.
// Example: 1234.5 with the EUR spec (right_space, "." thousands, "," decimal)
// returns "1.234,50 €".
func FormatPrice(amount decimal.Decimal, spec domain.LocaleFormatSpec, symbol string) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(int32(spec.NumDecimals))

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	number := groupThousands(intPart, spec.ThousandSep)
	if fracPart != "" {
		number += spec.DecimalSep + fracPart
	}

	var out string
	switch spec.CurrencyPos {
	case domain.PositionRight:
		out = number + symbol
	case domain.PositionRightSpace:
		out = number + " " + symbol
	case domain.PositionLeftSpace:
		out = symbol + " " + number
	default:
		out = symbol + number
	}
	if negative {
		out = "-" + out
	}
	return out
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
