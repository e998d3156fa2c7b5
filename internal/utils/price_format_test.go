package utils_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/core/domain"
	"github.com/storelens/multicurrency/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	usd := domain.LocaleFormatSpec{CurrencyPos: domain.PositionLeft, ThousandSep: ",", DecimalSep: ".", NumDecimals: 2}
	eur := domain.LocaleFormatSpec{CurrencyPos: domain.PositionRightSpace, ThousandSep: ".", DecimalSep: ",", NumDecimals: 2}
	jpy := domain.LocaleFormatSpec{CurrencyPos: domain.PositionLeft, ThousandSep: ",", DecimalSep: ".", NumDecimals: 0}
	chf := domain.LocaleFormatSpec{CurrencyPos: domain.PositionLeftSpace, ThousandSep: "'", DecimalSep: ".", NumDecimals: 2}

	testCases := []struct {
		name     string
		amount   string
		spec     domain.LocaleFormatSpec
		symbol   string
		expected string
	}{
		{"usd simple", "17.99", usd, "$", "$17.99"},
		{"usd thousands", "1234.5", usd, "$", "$1,234.50"},
		{"usd millions", "1234567.89", usd, "$", "$1,234,567.89"},
		{"eur right space", "1234.5", eur, "€", "1.234,50 €"},
		{"jpy no decimals", "3000", jpy, "¥", "¥3,000"},
		{"chf left space", "12345.6", chf, "CHF", "CHF 12'345.60"},
		{"negative", "-1234.5", usd, "$", "-$1,234.50"},
		{"small amount no grouping", "999.99", usd, "$", "$999.99"},
		{"rounds to locale decimals", "17.999", usd, "$", "$18.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := utils.FormatPrice(decimal.RequireFromString(tc.amount), tc.spec, tc.symbol)
			assert.Equal(t, tc.expected, got)
		})
	}
}
