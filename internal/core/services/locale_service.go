package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/storelens/multicurrency/internal/core/domain"
	"github.com/storelens/multicurrency/internal/localedata"
)

// LocaleService resolves currency formatting rules from the embedded locale
// dataset. The dataset is flattened into currency-code-indexed maps once and
// the derived index is kept for a bounded time; expiry is the only
// invalidation since the dataset is static release data.
type LocaleService struct {
	logger *slog.Logger
	ttl    time.Duration

	mu              sync.RWMutex
	builtAt         time.Time
	formats         map[string]domain.LocaleFormatSpec
	names           map[string]string
	symbols         map[string]string
	decimals        map[string]int
	countryCurrency map[string]string
}

// NewLocaleService creates a LocaleService whose derived index is rebuilt
// after indexTTL elapses.
func NewLocaleService(indexTTL time.Duration, logger *slog.Logger) *LocaleService {
	return &LocaleService{
		logger: logger,
		ttl:    indexTTL,
	}
}

// GetFormat returns the formatting spec for a currency code. The boolean is
// false when the code is unknown and the fallback spec was returned.
func (s *LocaleService) GetFormat(ctx context.Context, currencyCode string) (domain.LocaleFormatSpec, bool) {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if spec, ok := s.formats[currencyCode]; ok {
		return spec, true
	}
	return domain.FallbackLocaleFormatSpec(), false
}

// CurrencyName returns the display name for a currency code, or the code
// itself when unknown.
func (s *LocaleService) CurrencyName(ctx context.Context, currencyCode string) string {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name, ok := s.names[currencyCode]; ok {
		return name
	}
	return currencyCode
}

// CurrencySymbol returns the symbol for a currency code, or the code itself
// when unknown.
func (s *LocaleService) CurrencySymbol(ctx context.Context, currencyCode string) string {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sym, ok := s.symbols[currencyCode]; ok {
		return sym
	}
	return currencyCode
}

// CurrencyDecimals returns the decimal count for a currency code, defaulting
// to domain.DefaultDecimals when unknown.
func (s *LocaleService) CurrencyDecimals(ctx context.Context, currencyCode string) int {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.decimals[currencyCode]; ok {
		return d
	}
	return domain.DefaultDecimals
}

// CurrencyForCountry maps a country code to its currency, or empty when the
// country is not in the dataset.
func (s *LocaleService) CurrencyForCountry(ctx context.Context, countryCode string) string {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countryCurrency[countryCode]
}

// KnownCurrency reports whether the dataset carries the currency code at all.
func (s *LocaleService) KnownCurrency(ctx context.Context, currencyCode string) bool {
	s.ensureIndex(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.formats[currencyCode]
	return ok
}

func (s *LocaleService) ensureIndex(ctx context.Context) {
	s.mu.RLock()
	fresh := s.formats != nil && time.Since(s.builtAt) < s.ttl
	s.mu.RUnlock()
	if fresh {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.formats != nil && time.Since(s.builtAt) < s.ttl {
		return
	}

	entries, err := localedata.Load()
	if err != nil {
		s.logger.Error("Failed to load locale dataset", slog.String("error", err.Error()))
		if s.formats == nil {
			// Keep empty maps so lookups hit the documented fallbacks.
			s.formats = map[string]domain.LocaleFormatSpec{}
			s.names = map[string]string{}
			s.symbols = map[string]string{}
			s.decimals = map[string]int{}
			s.countryCurrency = map[string]string{}
		}
		s.builtAt = time.Now()
		return
	}

	formats := make(map[string]domain.LocaleFormatSpec, len(entries))
	names := make(map[string]string, len(entries))
	symbols := make(map[string]string, len(entries))
	decimals := make(map[string]int, len(entries))
	countryCurrency := make(map[string]string, len(entries))

	for _, e := range entries {
		countryCurrency[e.Country] = e.Currency
		// First entry wins; downstream consumers format by currency code,
		// not locale, so one representative per currency is kept.
		if _, seen := formats[e.Currency]; seen {
			continue
		}
		formats[e.Currency] = domain.LocaleFormatSpec{
			CurrencyPos: domain.CurrencyPosition(e.CurrencyPos),
			ThousandSep: e.ThousandSep,
			DecimalSep:  e.DecimalSep,
			NumDecimals: e.NumDecimals,
		}
		names[e.Currency] = e.Name
		symbols[e.Currency] = e.Symbol
		decimals[e.Currency] = e.NumDecimals
	}

	s.formats = formats
	s.names = names
	s.symbols = symbols
	s.decimals = decimals
	s.countryCurrency = countryCurrency
	s.builtAt = time.Now()
	s.logger.Info("Locale format index rebuilt", slog.Int("currencies", len(formats)), slog.Int("countries", len(countryCurrency)))
}
