package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

// CompatibilityService decides whether a given price conversion may proceed,
// given subscription renewal/switch/resubscribe state. Every decision is a
// pure function of the explicit cart and pricing context the caller passes.
type CompatibilityService struct {
	orders portsrepo.OrderReader
	logger *slog.Logger
}

// NewCompatibilityService creates a new CompatibilityService.
func NewCompatibilityService(orders portsrepo.OrderReader, logger *slog.Logger) *CompatibilityService {
	return &CompatibilityService{
		orders: orders,
		logger: logger,
	}
}

// ShouldConvertProductPrice is false when the price was already converted
// (add-on adjusted prices carry a meta flag) or a renewal/resubscribe total
// is being computed, so the original billed amount is charged.
func (s *CompatibilityService) ShouldConvertProductPrice(product domain.Product, cart domain.CartContext) bool {
	if product.PriceConverted {
		return false
	}
	switch cart.Pricing {
	case domain.ContextRenewalTotal, domain.ContextResubscribeTotal:
		return false
	}
	return true
}

// ShouldConvertCouponAmount is false for percentage coupons (nothing to
// convert) and for recurring coupons while an early renewal is recalculated
// outside the standard checkout path.
func (s *CompatibilityService) ShouldConvertCouponAmount(coupon domain.Coupon, cart domain.CartContext) bool {
	if coupon.IsPercentage() {
		return false
	}
	if coupon.IsRecurring() && cart.Pricing == domain.ContextEarlyRenewal {
		return false
	}
	return true
}

// OverrideSelectedCurrency returns the currency the original order was
// denominated in when the cart contains a renewal, switch, or resubscribe.
// Renewal charges must never silently change currency because of the
// visitor's current session state.
func (s *CompatibilityService) OverrideSelectedCurrency(ctx context.Context, cart domain.CartContext) string {
	orderID := cart.ForcingOrderID()
	if orderID == "" {
		return ""
	}
	code, err := s.orders.FindOrderCurrency(ctx, orderID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Failed to read original order currency",
				slog.String("order_id", orderID), slog.String("error", err.Error()))
		}
		return ""
	}
	return code
}

// ShouldHideWidgets is true whenever the currency is forced; the switcher UI
// must not be shown in that state.
func (s *CompatibilityService) ShouldHideWidgets(cart domain.CartContext) bool {
	return cart.HasForcedCurrency()
}

// ShouldDisableMixedCart is true when a subscription switch is in the cart,
// preventing differently-currencied subscriptions from mixing in one order.
func (s *CompatibilityService) ShouldDisableMixedCart(cart domain.CartContext) bool {
	return cart.HasSwitch()
}

// AllowAutomaticSwitch vetoes geolocation-driven switching while any forced-
// currency context is active.
func (s *CompatibilityService) AllowAutomaticSwitch(cart domain.CartContext) bool {
	return !cart.HasForcedCurrency()
}
