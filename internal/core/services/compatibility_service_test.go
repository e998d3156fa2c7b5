package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	"github.com/storelens/multicurrency/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type CompatibilityServiceTestSuite struct {
	suite.Suite
	mockOrders *MockOrderReader
	service    *services.CompatibilityService
}

func (suite *CompatibilityServiceTestSuite) SetupTest() {
	suite.mockOrders = new(MockOrderReader)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewCompatibilityService(suite.mockOrders, logger)
}

// --- Test Cases ---

func (suite *CompatibilityServiceTestSuite) TestShouldConvertProductPrice() {
	plain := domain.Product{ID: "p1"}
	converted := domain.Product{ID: "p2", PriceConverted: true}

	suite.True(suite.service.ShouldConvertProductPrice(plain, domain.CartContext{}))
	suite.False(suite.service.ShouldConvertProductPrice(converted, domain.CartContext{}))
	suite.False(suite.service.ShouldConvertProductPrice(plain, domain.CartContext{Pricing: domain.ContextRenewalTotal}))
	suite.False(suite.service.ShouldConvertProductPrice(plain, domain.CartContext{Pricing: domain.ContextResubscribeTotal}))
	suite.True(suite.service.ShouldConvertProductPrice(plain, domain.CartContext{Pricing: domain.ContextSwitchTotal}))
}

func (suite *CompatibilityServiceTestSuite) TestShouldConvertCouponAmount() {
	fixed := domain.Coupon{Code: "SAVE5", Type: domain.CouponTypeFixed}
	percent := domain.Coupon{Code: "TEN", Type: domain.CouponTypePercent}
	recurring := domain.Coupon{Code: "SUB5", Type: domain.CouponTypeRecurringFee}

	suite.True(suite.service.ShouldConvertCouponAmount(fixed, domain.CartContext{}))
	suite.False(suite.service.ShouldConvertCouponAmount(percent, domain.CartContext{}))
	suite.True(suite.service.ShouldConvertCouponAmount(recurring, domain.CartContext{}))
	suite.False(suite.service.ShouldConvertCouponAmount(recurring, domain.CartContext{Pricing: domain.ContextEarlyRenewal}))
	suite.False(suite.service.ShouldConvertCouponAmount(percent, domain.CartContext{Pricing: domain.ContextEarlyRenewal}))
}

func (suite *CompatibilityServiceTestSuite) TestOverrideSelectedCurrency_RenewalUsesOriginalOrderCurrency() {
	cart := domain.CartContext{RenewalOrderID: "order-42"}
	suite.mockOrders.On("FindOrderCurrency", mock.Anything, "order-42").Return("EUR", nil).Once()

	code := suite.service.OverrideSelectedCurrency(context.Background(), cart)

	suite.Equal("EUR", code)
	suite.mockOrders.AssertExpectations(suite.T())
}

func (suite *CompatibilityServiceTestSuite) TestOverrideSelectedCurrency_NoForcedContext() {
	code := suite.service.OverrideSelectedCurrency(context.Background(), domain.CartContext{})

	suite.Equal("", code)
	suite.mockOrders.AssertNotCalled(suite.T(), "FindOrderCurrency", mock.Anything, mock.Anything)
}

func (suite *CompatibilityServiceTestSuite) TestOverrideSelectedCurrency_UnknownOrder() {
	cart := domain.CartContext{ResubscribeOrderID: "order-missing"}
	suite.mockOrders.On("FindOrderCurrency", mock.Anything, "order-missing").Return("", apperrors.ErrNotFound).Once()

	suite.Equal("", suite.service.OverrideSelectedCurrency(context.Background(), cart))
}

func (suite *CompatibilityServiceTestSuite) TestOverrideSelectedCurrency_LookupFailure() {
	cart := domain.CartContext{SwitchOrderID: "order-13"}
	suite.mockOrders.On("FindOrderCurrency", mock.Anything, "order-13").Return("", errors.New("db down")).Once()

	suite.Equal("", suite.service.OverrideSelectedCurrency(context.Background(), cart))
}

func (suite *CompatibilityServiceTestSuite) TestWidgetAndCartPolicies() {
	renewal := domain.CartContext{RenewalOrderID: "order-1"}
	switchCart := domain.CartContext{SwitchOrderID: "order-2"}

	suite.True(suite.service.ShouldHideWidgets(renewal))
	suite.False(suite.service.ShouldHideWidgets(domain.CartContext{}))

	suite.True(suite.service.ShouldDisableMixedCart(switchCart))
	suite.False(suite.service.ShouldDisableMixedCart(renewal))

	suite.False(suite.service.AllowAutomaticSwitch(renewal))
	suite.True(suite.service.AllowAutomaticSwitch(domain.CartContext{}))
}

func TestCompatibilityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CompatibilityServiceTestSuite))
}
