// Package localedata ships the static country/currency/locale dataset the
// formatting registry is built from. The dataset is plugin data: it only
// changes with a new release, never at runtime.
package localedata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed locale-info.json
var localeInfoJSON []byte

// Entry is one country's currency formatting record. Entries are ordered;
// when several countries share a currency, the first entry wins during
// flattening.
type Entry struct {
	Country     string `json:"country"`
	Locale      string `json:"locale"`
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	CurrencyPos string `json:"currency_pos"`
	ThousandSep string `json:"thousand_sep"`
	DecimalSep  string `json:"decimal_sep"`
	NumDecimals int    `json:"num_decimals"`
}

// Load parses the embedded dataset. Parsing is comparatively expensive, so
// callers are expected to cache the derived indexes rather than calling Load
// per request.
func Load() ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(localeInfoJSON, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse embedded locale dataset: %w", err)
	}
	return entries, nil
}
