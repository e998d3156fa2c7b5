package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

// Persisted settings keys shared by the conversion and selection services.
const (
	settingEnabledCurrencies       = "enabled_currencies"
	settingLastKnownBaseCurrency   = "last_known_base_currency"
	settingManualRateNotice        = "manual_rate_review_notice"
	settingCustomerCurrencyHistory = "customer_currency_history"
)

var decimalOne = decimal.NewFromInt(1)

// Per-currency settings keys are suffixed with the lowercased currency code.
func settingExchangeRateType(code string) string {
	return "exchange_rate_" + strings.ToLower(code)
}

func settingManualRate(code string) string {
	return "manual_rate_" + strings.ToLower(code)
}

func settingPriceRounding(code string) string {
	return "price_rounding_" + strings.ToLower(code)
}

func settingPriceCharm(code string) string {
	return "price_charm_" + strings.ToLower(code)
}

// readStringListSetting decodes a JSON string-list setting. Missing keys
// propagate apperrors.ErrNotFound from the repository.
func readStringListSetting(ctx context.Context, repo portsrepo.SettingsReader, key string) ([]string, error) {
	raw, err := repo.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return list, nil
}

// writeStringListSetting encodes and persists a JSON string-list setting.
func writeStringListSetting(ctx context.Context, repo portsrepo.SettingsWriter, key string, list []string) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	return repo.SetSetting(ctx, key, string(raw))
}
