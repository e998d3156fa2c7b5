package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	"github.com/storelens/multicurrency/internal/core/services"
	"github.com/storelens/multicurrency/pkg/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type SelectionServiceTestSuite struct {
	suite.Suite
	mockLister   *MockEnabledCurrencyLister
	mockSessions *MockSessionStore
	mockUserMeta *MockUserMetaStore
	settings     *stubSettingsRepo
	mockCompat   *MockCompatibilitySvc
	mockGeo      *MockGeolocationSvc
	mockRecalc   *MockCartRecalculator
	cfg          *config.Config
	service      *services.SelectionService

	usd domain.Currency
	eur domain.Currency
	jpy domain.Currency
	gbp domain.Currency
}

func (suite *SelectionServiceTestSuite) SetupTest() {
	suite.mockLister = new(MockEnabledCurrencyLister)
	suite.mockSessions = new(MockSessionStore)
	suite.mockUserMeta = new(MockUserMetaStore)
	suite.settings = newStubSettingsRepo()
	suite.mockCompat = new(MockCompatibilitySvc)
	suite.mockGeo = new(MockGeolocationSvc)
	suite.mockRecalc = new(MockCartRecalculator)
	suite.cfg = &config.Config{
		StoreCurrency:  "USD",
		StoreCountry:   "US",
		RateCacheTTL:   6 * time.Hour,
		LocaleCacheTTL: time.Hour,
	}

	suite.usd = domain.Currency{Code: "USD", Name: "US Dollar", Rate: decimal.NewFromInt(1), NumberOfDecimals: 2, IsDefault: true}
	suite.eur = domain.Currency{Code: "EUR", Name: "Euro", Rate: decimal.RequireFromString("0.9"), NumberOfDecimals: 2}
	suite.jpy = domain.Currency{Code: "JPY", Name: "Japanese Yen", Rate: decimal.RequireFromString("150"), NumberOfDecimals: 0}
	suite.gbp = domain.Currency{Code: "GBP", Name: "Pound Sterling", Rate: decimal.RequireFromString("0.8"), NumberOfDecimals: 2}

	suite.mockLister.On("GetDefaultCurrency", mock.Anything).Return(suite.usd, nil)
	suite.mockLister.On("GetEnabledCurrencies", mock.Anything).Return([]domain.Currency{suite.usd, suite.eur, suite.jpy, suite.gbp}, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewSelectionService(
		suite.mockLister, suite.mockSessions, suite.mockUserMeta, suite.settings,
		suite.mockCompat, suite.mockGeo, suite.mockRecalc, suite.cfg, logger,
	)
}

// --- Test Cases ---

func (suite *SelectionServiceTestSuite) TestResolve_CompatibilityOverrideBeatsEverything() {
	// A renewal in the cart pins the currency to the original order's EUR,
	// even though the URL asks for JPY and the session stores GBP.
	cart := domain.CartContext{RenewalOrderID: "order-77"}
	state := domain.NewRequestState(domain.RequestSignals{
		CurrencyParam: "JPY",
		SessionID:     "sess-1",
		Cart:          cart,
		Bootstrapped:  true,
	})
	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, cart).Return("EUR")

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("EUR", cur.Code)
	suite.mockSessions.AssertNotCalled(suite.T(), "GetSelectedCurrency", mock.Anything, mock.Anything)
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_URLParamBeatsStoredSelection() {
	state := domain.NewRequestState(domain.RequestSignals{
		CurrencyParam: "JPY",
		SessionID:     "sess-1",
		Bootstrapped:  true,
	})
	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("GBP", nil)
	suite.mockSessions.On("SetSelectedCurrency", mock.Anything, "sess-1", "JPY").Return(nil)
	suite.mockRecalc.On("Recalculate", mock.Anything, "sess-1", "").Return(nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("JPY", cur.Code)
	suite.mockSessions.AssertExpectations(suite.T())
	suite.mockRecalc.AssertNumberOfCalls(suite.T(), "Recalculate", 1)
}

func (suite *SelectionServiceTestSuite) TestResolve_URLParamMatchingStoredSkipsRecalc() {
	state := domain.NewRequestState(domain.RequestSignals{
		CurrencyParam: "GBP",
		SessionID:     "sess-1",
		Bootstrapped:  true,
	})
	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("GBP", nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("GBP", cur.Code)
	suite.mockSessions.AssertNotCalled(suite.T(), "SetSelectedCurrency", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_InvalidURLParamIgnored() {
	state := domain.NewRequestState(domain.RequestSignals{
		CurrencyParam: "XXX",
		SessionID:     "sess-1",
		Bootstrapped:  true,
	})
	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("GBP", nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("GBP", cur.Code)
	suite.mockSessions.AssertNotCalled(suite.T(), "SetSelectedCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_UserMetaPreferredOverSession() {
	state := domain.NewRequestState(domain.RequestSignals{
		SessionID: "sess-1",
		UserID:    "user-9",
	})
	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockUserMeta.On("GetSelectedCurrency", mock.Anything, "user-9").Return("EUR", nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("EUR", cur.Code)
	suite.mockSessions.AssertNotCalled(suite.T(), "GetSelectedCurrency", mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_GeolocationForFreshVisitor() {
	suite.cfg.AutoCurrencySwitch = true
	signals := domain.RequestSignals{SessionID: "sess-1", Bootstrapped: true}
	state := domain.NewRequestState(signals)

	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockCompat.On("AllowAutomaticSwitch", mock.Anything).Return(true)
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("", apperrors.ErrNotFound)
	suite.mockGeo.On("ResolveCurrency", mock.Anything, mock.Anything).Return("EUR")
	suite.mockSessions.On("SetSelectedCurrency", mock.Anything, "sess-1", "EUR").Return(nil)
	suite.mockRecalc.On("Recalculate", mock.Anything, "sess-1", "").Return(nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("EUR", cur.Code)
	suite.True(state.GeolocationApplied())
	suite.mockSessions.AssertExpectations(suite.T())
}

func (suite *SelectionServiceTestSuite) TestResolve_GeolocationToDefaultCurrencySkipsRecalc() {
	suite.cfg.AutoCurrencySwitch = true
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1", Bootstrapped: true})

	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockCompat.On("AllowAutomaticSwitch", mock.Anything).Return(true)
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("", apperrors.ErrNotFound)
	suite.mockGeo.On("ResolveCurrency", mock.Anything, mock.Anything).Return("USD")
	suite.mockSessions.On("SetSelectedCurrency", mock.Anything, "sess-1", "USD").Return(nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("USD", cur.Code)
	suite.False(state.GeolocationApplied())
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_GeolocationDisabledFallsBackToDefault() {
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1"})

	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("", apperrors.ErrNotFound)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("USD", cur.Code)
	suite.mockGeo.AssertNotCalled(suite.T(), "ResolveCurrency", mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_StoredSelectionVetoesGeolocation() {
	suite.cfg.AutoCurrencySwitch = true
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1"})

	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("GBP", nil)

	cur := suite.service.Resolve(context.Background(), state)

	suite.Equal("GBP", cur.Code)
	suite.mockGeo.AssertNotCalled(suite.T(), "ResolveCurrency", mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestResolve_MemoizedWithinRequest() {
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1"})

	suite.mockCompat.On("OverrideSelectedCurrency", mock.Anything, mock.Anything).Return("")
	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("EUR", nil).Once()

	first := suite.service.Resolve(context.Background(), state)
	second := suite.service.Resolve(context.Background(), state)

	suite.Equal(first.Code, second.Code)
	suite.mockSessions.AssertNumberOfCalls(suite.T(), "GetSelectedCurrency", 1)
}

func (suite *SelectionServiceTestSuite) TestUpdateSelected_UnknownCodeIsNoop() {
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1", Bootstrapped: true})

	err := suite.service.UpdateSelected(context.Background(), state, "XXX", true)

	suite.Require().NoError(err)
	suite.mockSessions.AssertNotCalled(suite.T(), "SetSelectedCurrency", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestUpdateSelected_PersistsToUserMetaAndRecordsHistory() {
	state := domain.NewRequestState(domain.RequestSignals{UserID: "user-9", Bootstrapped: true})

	suite.mockUserMeta.On("GetSelectedCurrency", mock.Anything, "user-9").Return("", apperrors.ErrNotFound)
	suite.mockUserMeta.On("SetSelectedCurrency", mock.Anything, "user-9", "EUR").Return(nil)
	suite.mockRecalc.On("Recalculate", mock.Anything, "", "user-9").Return(nil)

	err := suite.service.UpdateSelected(context.Background(), state, "EUR", true)

	suite.Require().NoError(err)
	suite.mockUserMeta.AssertExpectations(suite.T())

	history, herr := suite.settings.GetSetting(context.Background(), "customer_currency_history")
	suite.Require().NoError(herr)
	suite.JSONEq(`["EUR"]`, history)
}

func (suite *SelectionServiceTestSuite) TestUpdateSelected_SameCodeSkipsPersistAndRecalc() {
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1", Bootstrapped: true})

	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("EUR", nil)

	err := suite.service.UpdateSelected(context.Background(), state, "EUR", true)

	suite.Require().NoError(err)
	suite.mockSessions.AssertNotCalled(suite.T(), "SetSelectedCurrency", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SelectionServiceTestSuite) TestUpdateSelected_DeferredRecalcFlushedAtEndOfRequest() {
	state := domain.NewRequestState(domain.RequestSignals{SessionID: "sess-1", Bootstrapped: false})

	suite.mockSessions.On("GetSelectedCurrency", mock.Anything, "sess-1").Return("", apperrors.ErrNotFound)
	suite.mockSessions.On("SetSelectedCurrency", mock.Anything, "sess-1", "JPY").Return(nil)
	suite.mockRecalc.On("Recalculate", mock.Anything, "sess-1", "").Return(nil)

	err := suite.service.UpdateSelected(context.Background(), state, "JPY", true)
	suite.Require().NoError(err)
	suite.mockRecalc.AssertNotCalled(suite.T(), "Recalculate", mock.Anything, mock.Anything, mock.Anything)

	suite.service.FlushDeferred(context.Background(), state)
	suite.mockRecalc.AssertNumberOfCalls(suite.T(), "Recalculate", 1)

	// A second flush runs nothing.
	suite.service.FlushDeferred(context.Background(), state)
	suite.mockRecalc.AssertNumberOfCalls(suite.T(), "Recalculate", 1)
}

func (suite *SelectionServiceTestSuite) TestVaryCookie() {
	name, value := suite.service.VaryCookie(suite.eur)

	suite.Equal("store_currency_vary", name)
	suite.Equal("EUR_0.9", value)
}

func TestSelectionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SelectionServiceTestSuite))
}
