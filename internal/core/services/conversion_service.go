package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/pkg/config"
)

// ConversionService is the multi-currency engine: it owns the available and
// enabled currency sets, rate caching, price conversion with rounding and
// charm adjustment, raw cross-rate conversion, and per-currency settings
// persistence.
type ConversionService struct {
	settings     portsrepo.SettingsRepositoryFacade
	orders       portsrepo.OrderReader
	rateCache    portsrepo.RateCache
	rateProvider portsrepo.RateProvider
	locale       *LocaleService
	compat       portssvc.CompatibilitySvc
	selector     portssvc.SelectionSvc
	cfg          *config.Config
	logger       *slog.Logger

	mu              sync.Mutex
	initialized     bool
	available       []domain.Currency
	availableByCode map[string]domain.Currency
	enabled         []domain.Currency
	enabledByCode   map[string]domain.Currency
}

// NewConversionService creates the conversion engine. The selection resolver
// is attached separately because it needs the engine's enabled-currency view.
func NewConversionService(
	settings portsrepo.SettingsRepositoryFacade,
	orders portsrepo.OrderReader,
	rateCache portsrepo.RateCache,
	rateProvider portsrepo.RateProvider,
	locale *LocaleService,
	compat portssvc.CompatibilitySvc,
	cfg *config.Config,
	logger *slog.Logger,
) *ConversionService {
	return &ConversionService{
		settings:     settings,
		orders:       orders,
		rateCache:    rateCache,
		rateProvider: rateProvider,
		locale:       locale,
		compat:       compat,
		cfg:          cfg,
		logger:       logger,
	}
}

// AttachSelectionResolver wires the selection state machine after both
// services exist.
func (s *ConversionService) AttachSelectionResolver(selector portssvc.SelectionSvc) {
	s.selector = selector
}

// Init detects base-currency changes and builds the currency sets. It is
// called at bootstrap; all getters also initialize lazily.
func (s *ConversionService) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *ConversionService) initLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}
	s.checkStoreCurrencyChange(ctx)
	if err := s.rebuildLocked(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// GetAvailableCurrencies returns every currency the store could enable,
// ordered by display name. The default currency is always included.
func (s *ConversionService) GetAvailableCurrencies(ctx context.Context) ([]domain.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Currency, len(s.available))
	copy(out, s.available)
	return out, nil
}

// GetEnabledCurrencies returns the merchant-enabled subset, default first.
func (s *ConversionService) GetEnabledCurrencies(ctx context.Context) ([]domain.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Currency, len(s.enabled))
	copy(out, s.enabled)
	return out, nil
}

// GetDefaultCurrency returns the store's base currency, rate 1.0.
func (s *ConversionService) GetDefaultCurrency(ctx context.Context) (domain.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return domain.Currency{}, err
	}
	return s.availableByCode[s.cfg.StoreCurrency], nil
}

// SetEnabledCurrencies replaces the enabled set. Every code must exist in the
// available currencies; the settings of currencies dropped from the set are
// deleted so no orphaned configuration lingers.
func (s *ConversionService) SetEnabledCurrencies(ctx context.Context, codes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return err
	}

	normalized := make([]string, 0, len(codes)+1)
	seen := map[string]bool{}
	var invalid []string
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if seen[code] {
			continue
		}
		seen[code] = true
		if _, ok := s.availableByCode[code]; !ok {
			invalid = append(invalid, code)
			continue
		}
		normalized = append(normalized, code)
	}
	if len(invalid) > 0 {
		s.logger.Warn("Rejected enablement of unavailable currencies", slog.Any("currency_codes", invalid))
		return fmt.Errorf("%w: currencies not available: %s", apperrors.ErrInvalidCurrency, strings.Join(invalid, ", "))
	}

	// The default currency is always implicitly enabled.
	if !seen[s.cfg.StoreCurrency] {
		normalized = append([]string{s.cfg.StoreCurrency}, normalized...)
	}

	for _, prev := range s.enabled {
		if !containsString(normalized, prev.Code) {
			s.deleteCurrencySettings(ctx, prev.Code)
		}
	}

	if err := writeStringListSetting(ctx, s.settings, settingEnabledCurrencies, normalized); err != nil {
		return fmt.Errorf("failed to persist enabled currencies: %w", err)
	}

	return s.rebuildLocked(ctx)
}

// GetSelectedCurrency resolves the active currency for the request, falling
// back to the default for unknown or disabled codes.
func (s *ConversionService) GetSelectedCurrency(ctx context.Context, state *domain.RequestState) (domain.Currency, error) {
	def, err := s.GetDefaultCurrency(ctx)
	if err != nil {
		return domain.Currency{}, err
	}
	if s.selector == nil || state == nil {
		return def, nil
	}

	cur := s.selector.Resolve(ctx, state)
	s.mu.Lock()
	_, enabled := s.enabledByCode[cur.Code]
	s.mu.Unlock()
	if !enabled {
		return def, nil
	}
	return cur, nil
}

// UpdateSelectedCurrency validates and persists an explicit selection.
// Non-enabled codes are silently ignored.
func (s *ConversionService) UpdateSelectedCurrency(ctx context.Context, state *domain.RequestState, code string) error {
	if _, err := s.GetDefaultCurrency(ctx); err != nil {
		return err
	}
	if s.selector == nil {
		return nil
	}
	return s.selector.UpdateSelected(ctx, state, code, true)
}

// GetPrice converts an amount into the selected currency. Product and
// shipping prices get rounding and charm adjustment; tax, coupon, and
// exchange-rate amounts are converted raw. Unknown price types and the
// default currency pass through unchanged. Price display must always
// succeed, so this method never returns an error.
func (s *ConversionService) GetPrice(ctx context.Context, state *domain.RequestState, amount decimal.Decimal, priceType domain.PriceType) decimal.Decimal {
	if !priceType.Known() {
		return amount
	}
	cur, err := s.GetSelectedCurrency(ctx, state)
	if err != nil {
		s.logger.Error("Currency resolution failed, returning unconverted amount", slog.String("error", err.Error()))
		return amount
	}
	if cur.IsDefault {
		return amount
	}

	converted := amount.Mul(cur.Rate)

	switch priceType {
	case domain.PriceTypeTax, domain.PriceTypeCoupon, domain.PriceTypeExchangeRate:
		return converted
	}

	applyCharm := priceType == domain.PriceTypeProduct ||
		(priceType == domain.PriceTypeShipping && s.cfg.CharmAppliesToShipping)
	return adjustedPrice(converted, cur.RoundingIncrement(), cur.Charm, applyCharm)
}

// GetProductPrice converts a product price after consulting the
// compatibility policy; skipped conversions return the amount unchanged.
func (s *ConversionService) GetProductPrice(ctx context.Context, state *domain.RequestState, product domain.Product, amount decimal.Decimal) decimal.Decimal {
	if !s.compat.ShouldConvertProductPrice(product, state.Signals.Cart) {
		return amount
	}
	return s.GetPrice(ctx, state, amount, domain.PriceTypeProduct)
}

// GetCouponAmount converts a coupon amount after consulting the
// compatibility policy.
func (s *ConversionService) GetCouponAmount(ctx context.Context, state *domain.RequestState, coupon domain.Coupon, amount decimal.Decimal) decimal.Decimal {
	if !s.compat.ShouldConvertCouponAmount(coupon, state.Signals.Cart) {
		return amount
	}
	return s.GetPrice(ctx, state, amount, domain.PriceTypeCoupon)
}

// GetRawConversion converts between two enabled currencies. Rates are all
// relative to the default currency, so the cross rate is toRate/fromRate.
// An empty fromCode means the store default.
func (s *ConversionService) GetRawConversion(ctx context.Context, amount decimal.Decimal, toCode, fromCode string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return decimal.Zero, err
	}

	toCode = strings.ToUpper(strings.TrimSpace(toCode))
	fromCode = strings.ToUpper(strings.TrimSpace(fromCode))
	if fromCode == "" {
		fromCode = s.cfg.StoreCurrency
	}

	to, ok := s.enabledByCode[toCode]
	if !ok {
		s.logger.Warn("Raw conversion to non-enabled currency", slog.String("currency_code", toCode))
		return decimal.Zero, fmt.Errorf("%w: currency %s is not enabled", apperrors.ErrInvalidCurrency, toCode)
	}
	from, ok := s.enabledByCode[fromCode]
	if !ok {
		s.logger.Warn("Raw conversion from non-enabled currency", slog.String("currency_code", fromCode))
		return decimal.Zero, fmt.Errorf("%w: currency %s is not enabled", apperrors.ErrInvalidCurrency, fromCode)
	}
	if !from.Rate.IsPositive() {
		s.logger.Warn("Raw conversion with non-positive source rate",
			slog.String("currency_code", fromCode), slog.String("rate", from.Rate.String()))
		return decimal.Zero, fmt.Errorf("%w: rate for %s is not positive", apperrors.ErrInvalidCurrencyRate, fromCode)
	}

	return amount.Mul(to.Rate).Div(from.Rate), nil
}

// GetSingleCurrencySettings returns the persisted per-currency settings, or
// freshly defaulted ones when nothing is stored.
func (s *ConversionService) GetSingleCurrencySettings(ctx context.Context, code string) (domain.CurrencySettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return domain.CurrencySettings{}, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	cur, ok := s.availableByCode[code]
	if !ok {
		s.logger.Warn("Settings requested for unavailable currency", slog.String("currency_code", code))
		return domain.CurrencySettings{}, fmt.Errorf("%w: currency %s is not available", apperrors.ErrInvalidCurrency, code)
	}
	return s.loadCurrencySettings(ctx, code, cur.NumberOfDecimals), nil
}

// UpdateSingleCurrencySettings persists per-currency configuration. A manual
// rate, when supplied, must be strictly positive.
func (s *ConversionService) UpdateSingleCurrencySettings(ctx context.Context, code string, settings domain.CurrencySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.initLocked(ctx); err != nil {
		return err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := s.availableByCode[code]; !ok {
		s.logger.Warn("Settings update for unavailable currency", slog.String("currency_code", code))
		return fmt.Errorf("%w: currency %s is not available", apperrors.ErrInvalidCurrency, code)
	}

	switch settings.ExchangeRateType {
	case domain.RateModeAutomatic, domain.RateModeManual:
	default:
		return fmt.Errorf("%w: unknown exchange rate type %q", apperrors.ErrValidation, settings.ExchangeRateType)
	}

	if settings.ExchangeRateType == domain.RateModeManual {
		if settings.ManualRate == nil || !settings.ManualRate.IsPositive() {
			s.logger.Warn("Rejected non-positive manual rate", slog.String("currency_code", code))
			return fmt.Errorf("%w: manual rate must be positive", apperrors.ErrInvalidCurrencyRate)
		}
	}

	if err := s.settings.SetSetting(ctx, settingExchangeRateType(code), string(settings.ExchangeRateType)); err != nil {
		return fmt.Errorf("failed to persist exchange rate type: %w", err)
	}
	if settings.ManualRate != nil {
		if err := s.settings.SetSetting(ctx, settingManualRate(code), settings.ManualRate.String()); err != nil {
			return fmt.Errorf("failed to persist manual rate: %w", err)
		}
	} else {
		if err := s.settings.DeleteSetting(ctx, settingManualRate(code)); err != nil {
			return fmt.Errorf("failed to clear manual rate: %w", err)
		}
	}
	if err := s.settings.SetSetting(ctx, settingPriceRounding(code), settings.PriceRounding); err != nil {
		return fmt.Errorf("failed to persist price rounding: %w", err)
	}
	if err := s.settings.SetSetting(ctx, settingPriceCharm(code), settings.PriceCharm.String()); err != nil {
		return fmt.Errorf("failed to persist price charm: %w", err)
	}

	return s.rebuildLocked(ctx)
}

// GetAllCustomerCurrencies returns every currency customers have transacted
// in: distinct order currencies merged with the selection usage history.
func (s *ConversionService) GetAllCustomerCurrencies(ctx context.Context) ([]string, error) {
	used, err := s.orders.DistinctCurrenciesUsed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer order currencies: %w", err)
	}

	history, err := readStringListSetting(ctx, s.settings, settingCustomerCurrencyHistory)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Failed to read currency usage history", slog.String("error", err.Error()))
	}

	seen := map[string]bool{}
	var merged []string
	for _, code := range append(used, history...) {
		code = strings.ToUpper(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		merged = append(merged, code)
	}
	sort.Strings(merged)
	return merged, nil
}

// GetManualRateNotices returns the currencies flagged for review after a
// base-currency change.
func (s *ConversionService) GetManualRateNotices(ctx context.Context) ([]string, error) {
	notices, err := readStringListSetting(ctx, s.settings, settingManualRateNotice)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read manual rate notices: %w", err)
	}
	return notices, nil
}

// ClearManualRateNotices dismisses the review notice.
func (s *ConversionService) ClearManualRateNotices(ctx context.Context) error {
	return s.settings.DeleteSetting(ctx, settingManualRateNotice)
}

// checkStoreCurrencyChange compares the configured base currency against the
// last one seen. A change invalidates every cached rate (they are all
// relative to the base) and flags manual-rate currencies for merchant
// review, since a manual rate fixed against the old base is almost certainly
// wrong now.
func (s *ConversionService) checkStoreCurrencyChange(ctx context.Context) {
	last, err := s.settings.GetSetting(ctx, settingLastKnownBaseCurrency)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Failed to read last known base currency", slog.String("error", err.Error()))
		return
	}

	current := s.cfg.StoreCurrency
	if last != "" && last != current {
		s.logger.Info("Store base currency changed",
			slog.String("previous", last), slog.String("current", current))

		if err := s.rateCache.DeleteRates(ctx, last); err != nil {
			s.logger.Warn("Failed to invalidate rate cache", slog.String("error", err.Error()))
		}

		var flagged []string
		if enabledCodes, err := readStringListSetting(ctx, s.settings, settingEnabledCurrencies); err == nil {
			for _, code := range enabledCodes {
				mode, err := s.settings.GetSetting(ctx, settingExchangeRateType(code))
				if err == nil && domain.RateMode(mode) == domain.RateModeManual {
					flagged = append(flagged, code)
				}
			}
		}
		if len(flagged) > 0 {
			if err := writeStringListSetting(ctx, s.settings, settingManualRateNotice, flagged); err != nil {
				s.logger.Warn("Failed to persist manual rate notices", slog.String("error", err.Error()))
			}
		}
	}

	if last != current {
		if err := s.settings.SetSetting(ctx, settingLastKnownBaseCurrency, current); err != nil {
			s.logger.Warn("Failed to persist last known base currency", slog.String("error", err.Error()))
		}
	}
}

// rebuildLocked reconstructs the available and enabled sets from scratch.
// Currency values are fresh on every rebuild, never mutated in place.
func (s *ConversionService) rebuildLocked(ctx context.Context) error {
	rates := s.ratesWithFallback(ctx)
	base := s.cfg.StoreCurrency

	available := make([]domain.Currency, 0, len(rates.Rates)+1)
	available = append(available, s.newCurrency(ctx, base, decimalOne, true, nil))

	var lastUpdated *time.Time
	if !rates.FetchedAt.IsZero() {
		t := rates.FetchedAt
		lastUpdated = &t
	}

	for code, rate := range rates.Rates {
		code = strings.ToUpper(code)
		if code == base {
			continue
		}
		// Only currencies the platform's locale dataset knows are offered.
		if !s.locale.KnownCurrency(ctx, code) {
			continue
		}
		if !rate.IsPositive() {
			s.logger.Warn("Skipping currency with non-positive provider rate",
				slog.String("currency_code", code), slog.String("rate", rate.String()))
			continue
		}
		available = append(available, s.newCurrency(ctx, code, rate, false, lastUpdated))
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Name < available[j].Name
	})

	availableByCode := make(map[string]domain.Currency, len(available))
	for _, cur := range available {
		availableByCode[cur.Code] = cur
	}

	enabledCodes, err := readStringListSetting(ctx, s.settings, settingEnabledCurrencies)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to read enabled currencies: %w", err)
	}

	// The default currency always leads the enabled set. Persisted codes
	// that are no longer available are silently dropped.
	enabled := []domain.Currency{availableByCode[base]}
	enabledByCode := map[string]domain.Currency{base: availableByCode[base]}
	for _, code := range enabledCodes {
		code = strings.ToUpper(code)
		if code == base {
			continue
		}
		cur, ok := availableByCode[code]
		if !ok {
			s.logger.Warn("Dropping enabled currency that is no longer available", slog.String("currency_code", code))
			continue
		}
		enabled = append(enabled, cur)
		enabledByCode[code] = cur
	}

	s.available = available
	s.availableByCode = availableByCode
	s.enabled = enabled
	s.enabledByCode = enabledByCode
	return nil
}

// newCurrency builds a currency snapshot, applying persisted per-currency
// settings (manual rate, rounding, charm) at construction time.
func (s *ConversionService) newCurrency(ctx context.Context, code string, providerRate decimal.Decimal, isDefault bool, lastUpdated *time.Time) domain.Currency {
	decimals := s.locale.CurrencyDecimals(ctx, code)
	cur := domain.Currency{
		Code:             code,
		Name:             s.locale.CurrencyName(ctx, code),
		Symbol:           s.locale.CurrencySymbol(ctx, code),
		Rate:             providerRate,
		Rounding:         domain.DefaultRounding(decimals),
		Charm:            decimal.Zero,
		NumberOfDecimals: decimals,
		IsDefault:        isDefault,
		LastUpdated:      lastUpdated,
	}
	if isDefault {
		cur.Rate = decimalOne
		return cur
	}

	settings := s.loadCurrencySettings(ctx, code, decimals)
	cur.Rounding = settings.PriceRounding
	cur.Charm = settings.PriceCharm
	if settings.ExchangeRateType == domain.RateModeManual && settings.ManualRate != nil && settings.ManualRate.IsPositive() {
		cur.Rate = *settings.ManualRate
		cur.LastUpdated = nil
	}
	return cur
}

// loadCurrencySettings reads the four per-currency keys, defaulting each
// missing or malformed value.
func (s *ConversionService) loadCurrencySettings(ctx context.Context, code string, decimals int) domain.CurrencySettings {
	settings := domain.DefaultCurrencySettings(decimals)

	if raw, err := s.settings.GetSetting(ctx, settingExchangeRateType(code)); err == nil {
		if mode := domain.RateMode(raw); mode == domain.RateModeAutomatic || mode == domain.RateModeManual {
			settings.ExchangeRateType = mode
		}
	}
	if raw, err := s.settings.GetSetting(ctx, settingManualRate(code)); err == nil {
		if rate, perr := decimal.NewFromString(raw); perr == nil && rate.IsPositive() {
			settings.ManualRate = &rate
		}
	}
	if raw, err := s.settings.GetSetting(ctx, settingPriceRounding(code)); err == nil {
		settings.PriceRounding = raw
	}
	if raw, err := s.settings.GetSetting(ctx, settingPriceCharm(code)); err == nil {
		if charm, perr := decimal.NewFromString(raw); perr == nil {
			settings.PriceCharm = charm
		}
	}
	return settings
}

// deleteCurrencySettings removes every per-currency key for a currency that
// was dropped from the enabled set.
func (s *ConversionService) deleteCurrencySettings(ctx context.Context, code string) {
	for _, key := range []string{
		settingExchangeRateType(code),
		settingManualRate(code),
		settingPriceRounding(code),
		settingPriceCharm(code),
	} {
		if err := s.settings.DeleteSetting(ctx, key); err != nil {
			s.logger.Warn("Failed to delete currency setting",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// ratesWithFallback implements the read-through rate cache: fresh cache wins,
// then the provider, then stale cache, and finally a 1.0 placeholder so price
// display never breaks because a rate API call failed.
func (s *ConversionService) ratesWithFallback(ctx context.Context) *portsrepo.CachedRates {
	base := s.cfg.StoreCurrency

	cached, err := s.rateCache.GetRates(ctx, base)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Rate cache read failed", slog.String("error", err.Error()))
	}
	if cached != nil && time.Since(cached.FetchedAt) < s.cfg.RateCacheTTL {
		return cached
	}

	fetched, err := s.rateProvider.FetchRates(ctx, base)
	if err == nil {
		fresh := &portsrepo.CachedRates{Rates: fetched, FetchedAt: time.Now()}
		// Stored without expiry: staleness is judged by FetchedAt, and stale
		// data is still the preferred fallback when the provider is down.
		if cerr := s.rateCache.SetRates(ctx, base, fresh, 0); cerr != nil {
			s.logger.Warn("Rate cache write failed", slog.String("error", cerr.Error()))
		}
		return fresh
	}

	s.logger.Warn("Rate provider fetch failed", slog.String("error", err.Error()))
	if cached != nil {
		s.logger.Info("Using stale cached rates", slog.Time("fetched_at", cached.FetchedAt))
		return cached
	}

	// No cache at all: placeholder rates keep the store functional.
	placeholder := map[string]decimal.Decimal{}
	for _, code := range s.enabledCodesFromSettings(ctx) {
		if code != base {
			placeholder[code] = decimalOne
		}
	}
	return &portsrepo.CachedRates{Rates: placeholder}
}

func (s *ConversionService) enabledCodesFromSettings(ctx context.Context) []string {
	codes, err := readStringListSetting(ctx, s.settings, settingEnabledCurrencies)
	if err != nil {
		return nil
	}
	return codes
}

// adjustedPrice rounds a converted price up to the nearest increment, then
// applies the charm offset, clamping the result at zero so a negative charm
// can never produce a negative price.
func adjustedPrice(price, increment, charm decimal.Decimal, applyCharm bool) decimal.Decimal {
	if increment.IsPositive() {
		price = price.Div(increment).Ceil().Mul(increment)
	}
	if applyCharm {
		price = price.Add(charm)
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
