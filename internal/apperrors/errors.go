package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidCurrency indicates that a referenced currency code is not part of
// the currency set the operation requires (available or enabled, depending on
// the caller).
var ErrInvalidCurrency = errors.New("invalid currency")

// ErrInvalidCurrencyRate indicates that a supplied or resolved exchange rate
// is non-numeric, zero, or negative.
var ErrInvalidCurrencyRate = errors.New("invalid currency rate")
