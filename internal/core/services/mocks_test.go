package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
	"github.com/stretchr/testify/mock"
)

// --- Stub SettingsRepository ---
// A stateful in-memory store: the conversion engine re-reads settings on every
// rebuild, so expectation-based mocking of reads would couple the tests to the
// engine's internal read order.
type stubSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{values: map[string]string{}}
}

func (s *stubSettingsRepo) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (s *stubSettingsRepo) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *stubSettingsRepo) DeleteSetting(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *stubSettingsRepo) setList(key string, list []string) {
	raw, _ := json.Marshal(list)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = string(raw)
}

func (s *stubSettingsRepo) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// --- Mock OrderReader ---
type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) FindOrderCurrency(ctx context.Context, orderID string) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

func (m *MockOrderReader) DistinctCurrenciesUsed(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock RateProvider ---
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchRates(ctx context.Context, baseCurrency string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// --- Mock RateCache ---
type MockRateCache struct {
	mock.Mock
}

func (m *MockRateCache) GetRates(ctx context.Context, baseCurrency string) (*portsrepo.CachedRates, error) {
	args := m.Called(ctx, baseCurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.CachedRates), args.Error(1)
}

func (m *MockRateCache) SetRates(ctx context.Context, baseCurrency string, rates *portsrepo.CachedRates, ttl time.Duration) error {
	args := m.Called(ctx, baseCurrency, rates, ttl)
	return args.Error(0)
}

func (m *MockRateCache) DeleteRates(ctx context.Context, baseCurrency string) error {
	args := m.Called(ctx, baseCurrency)
	return args.Error(0)
}

// --- Mock SelectionSvc ---
type MockSelectionSvc struct {
	mock.Mock
}

func (m *MockSelectionSvc) Resolve(ctx context.Context, state *domain.RequestState) domain.Currency {
	args := m.Called(ctx, state)
	return args.Get(0).(domain.Currency)
}

func (m *MockSelectionSvc) UpdateSelected(ctx context.Context, state *domain.RequestState, code string, persist bool) error {
	args := m.Called(ctx, state, code, persist)
	return args.Error(0)
}

func (m *MockSelectionSvc) FlushDeferred(ctx context.Context, state *domain.RequestState) {
	m.Called(ctx, state)
}

func (m *MockSelectionSvc) VaryCookie(currency domain.Currency) (string, string) {
	args := m.Called(currency)
	return args.String(0), args.String(1)
}

// --- Mock EnabledCurrencyLister ---
type MockEnabledCurrencyLister struct {
	mock.Mock
}

func (m *MockEnabledCurrencyLister) GetEnabledCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockEnabledCurrencyLister) GetDefaultCurrency(ctx context.Context) (domain.Currency, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Currency), args.Error(1)
}

// --- Mock SessionStore ---
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) GetSelectedCurrency(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) SetSelectedCurrency(ctx context.Context, sessionID, code string) error {
	args := m.Called(ctx, sessionID, code)
	return args.Error(0)
}

// --- Mock UserMetaStore ---
type MockUserMetaStore struct {
	mock.Mock
}

func (m *MockUserMetaStore) GetSelectedCurrency(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockUserMetaStore) SetSelectedCurrency(ctx context.Context, userID, code string) error {
	args := m.Called(ctx, userID, code)
	return args.Error(0)
}

// --- Mock CartRecalculator ---
type MockCartRecalculator struct {
	mock.Mock
}

func (m *MockCartRecalculator) Recalculate(ctx context.Context, sessionID, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

// --- Mock CompatibilitySvc ---
type MockCompatibilitySvc struct {
	mock.Mock
}

func (m *MockCompatibilitySvc) ShouldConvertProductPrice(product domain.Product, cart domain.CartContext) bool {
	args := m.Called(product, cart)
	return args.Bool(0)
}

func (m *MockCompatibilitySvc) ShouldConvertCouponAmount(coupon domain.Coupon, cart domain.CartContext) bool {
	args := m.Called(coupon, cart)
	return args.Bool(0)
}

func (m *MockCompatibilitySvc) OverrideSelectedCurrency(ctx context.Context, cart domain.CartContext) string {
	args := m.Called(ctx, cart)
	return args.String(0)
}

func (m *MockCompatibilitySvc) ShouldHideWidgets(cart domain.CartContext) bool {
	args := m.Called(cart)
	return args.Bool(0)
}

func (m *MockCompatibilitySvc) ShouldDisableMixedCart(cart domain.CartContext) bool {
	args := m.Called(cart)
	return args.Bool(0)
}

func (m *MockCompatibilitySvc) AllowAutomaticSwitch(cart domain.CartContext) bool {
	args := m.Called(cart)
	return args.Bool(0)
}

// --- Mock GeolocationSvc ---
type MockGeolocationSvc struct {
	mock.Mock
}

func (m *MockGeolocationSvc) ResolveCountry(ctx context.Context, signals domain.RequestSignals) string {
	args := m.Called(ctx, signals)
	return args.String(0)
}

func (m *MockGeolocationSvc) ResolveCurrency(ctx context.Context, signals domain.RequestSignals) string {
	args := m.Called(ctx, signals)
	return args.String(0)
}

// --- Mock Geolocator ---
type MockGeolocator struct {
	mock.Mock
}

func (m *MockGeolocator) LocateCountry(ctx context.Context, ip string) (string, error) {
	args := m.Called(ctx, ip)
	return args.String(0), args.Error(1)
}
