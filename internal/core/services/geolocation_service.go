package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/storelens/multicurrency/internal/core/domain"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/pkg/config"
)

// botUserAgentPatterns are matched case-insensitively as substrings.
// Requests from matching agents are excluded from geolocation so crawlers
// always see store-default prices.
var botUserAgentPatterns = []string{
	"bot",
	"crawl",
	"spider",
	"slurp",
	"mediapartners",
	"facebookexternalhit",
	"pingdom",
	"wget",
	"curl",
}

// GeolocationService maps a request's origin to a country and currency.
type GeolocationService struct {
	geolocator portsrepo.Geolocator
	locale     portssvc.LocaleSvc
	cfg        *config.Config
	logger     *slog.Logger
}

// NewGeolocationService creates a new GeolocationService.
func NewGeolocationService(geolocator portsrepo.Geolocator, locale portssvc.LocaleSvc, cfg *config.Config, logger *slog.Logger) *GeolocationService {
	return &GeolocationService{
		geolocator: geolocator,
		locale:     locale,
		cfg:        cfg,
		logger:     logger,
	}
}

// ResolveCountry determines the request's country. Bots get no country at
// all; failed or disallowed lookups fall back to the configured store
// location.
func (s *GeolocationService) ResolveCountry(ctx context.Context, signals domain.RequestSignals) string {
	if isBotUserAgent(signals.UserAgent) {
		return ""
	}

	country, err := s.geolocator.LocateCountry(ctx, signals.ClientIP)
	if err != nil {
		s.logger.Warn("IP geolocation failed, falling back to store country",
			slog.String("ip", signals.ClientIP), slog.String("error", err.Error()))
		return s.cfg.StoreCountry
	}
	country = strings.ToUpper(country)
	if country == "" || !s.cfg.CountryAllowed(country) {
		return s.cfg.StoreCountry
	}
	return country
}

// ResolveCurrency maps the resolved country to its currency code, or empty
// when either resolution step yields nothing.
func (s *GeolocationService) ResolveCurrency(ctx context.Context, signals domain.RequestSignals) string {
	country := s.ResolveCountry(ctx, signals)
	if country == "" {
		return ""
	}
	return s.locale.CurrencyForCountry(ctx, country)
}

func isBotUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, pattern := range botUserAgentPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
