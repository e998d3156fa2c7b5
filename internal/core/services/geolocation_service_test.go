package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/storelens/multicurrency/internal/core/domain"
	"github.com/storelens/multicurrency/internal/core/services"
	"github.com/storelens/multicurrency/pkg/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type GeolocationServiceTestSuite struct {
	suite.Suite
	mockGeolocator *MockGeolocator
	cfg            *config.Config
	service        *services.GeolocationService
}

func (suite *GeolocationServiceTestSuite) SetupTest() {
	suite.mockGeolocator = new(MockGeolocator)
	suite.cfg = &config.Config{
		StoreCurrency:  "USD",
		StoreCountry:   "US",
		LocaleCacheTTL: time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locale := services.NewLocaleService(time.Hour, logger)
	suite.service = services.NewGeolocationService(suite.mockGeolocator, locale, suite.cfg, logger)
}

// --- Test Cases ---

func (suite *GeolocationServiceTestSuite) TestResolveCountry_BotTrafficExcluded() {
	signals := domain.RequestSignals{
		UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		ClientIP:  "203.0.113.7",
	}

	suite.Equal("", suite.service.ResolveCountry(context.Background(), signals))
	suite.mockGeolocator.AssertNotCalled(suite.T(), "LocateCountry", mock.Anything, mock.Anything)
}

func (suite *GeolocationServiceTestSuite) TestResolveCountry_LookupFailureFallsBackToStoreCountry() {
	signals := domain.RequestSignals{UserAgent: "Mozilla/5.0", ClientIP: "203.0.113.7"}
	suite.mockGeolocator.On("LocateCountry", mock.Anything, "203.0.113.7").Return("", errors.New("timeout")).Once()

	suite.Equal("US", suite.service.ResolveCountry(context.Background(), signals))
}

func (suite *GeolocationServiceTestSuite) TestResolveCountry_DisallowedCountryFallsBack() {
	suite.cfg.AllowedCountries = []string{"US", "CA"}
	signals := domain.RequestSignals{UserAgent: "Mozilla/5.0", ClientIP: "203.0.113.7"}
	suite.mockGeolocator.On("LocateCountry", mock.Anything, "203.0.113.7").Return("DE", nil).Once()

	suite.Equal("US", suite.service.ResolveCountry(context.Background(), signals))
}

func (suite *GeolocationServiceTestSuite) TestResolveCurrency_MapsCountryToCurrency() {
	signals := domain.RequestSignals{UserAgent: "Mozilla/5.0", ClientIP: "203.0.113.7"}
	suite.mockGeolocator.On("LocateCountry", mock.Anything, "203.0.113.7").Return("de", nil).Once()

	suite.Equal("EUR", suite.service.ResolveCurrency(context.Background(), signals))
}

func (suite *GeolocationServiceTestSuite) TestResolveCurrency_BotGetsNothing() {
	signals := domain.RequestSignals{UserAgent: "curl/8.5.0", ClientIP: "203.0.113.7"}

	suite.Equal("", suite.service.ResolveCurrency(context.Background(), signals))
}

func TestGeolocationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GeolocationServiceTestSuite))
}
