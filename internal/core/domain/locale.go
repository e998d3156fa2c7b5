package domain

// CurrencyPosition encodes where the currency symbol sits relative to the
// amount when formatting a price.
type CurrencyPosition string

const (
	PositionLeft       CurrencyPosition = "left"
	PositionRight      CurrencyPosition = "right"
	PositionLeftSpace  CurrencyPosition = "left_space"
	PositionRightSpace CurrencyPosition = "right_space"
)

// LocaleFormatSpec holds the formatting rules for one currency code.
type LocaleFormatSpec struct {
	CurrencyPos CurrencyPosition `json:"currencyPos"`
	ThousandSep string           `json:"thousandSep"`
	DecimalSep  string           `json:"decimalSep"`
	NumDecimals int              `json:"numDecimals"`
}

// FallbackLocaleFormatSpec is used for currency codes absent from the locale
// dataset: 2 decimals, dot decimal separator, comma thousand separator,
// symbol on the left.
func FallbackLocaleFormatSpec() LocaleFormatSpec {
	return LocaleFormatSpec{
		CurrencyPos: PositionLeft,
		ThousandSep: ",",
		DecimalSep:  ".",
		NumDecimals: DefaultDecimals,
	}
}
