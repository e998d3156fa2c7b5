package services

import (
	"context"

	"github.com/storelens/multicurrency/internal/core/domain"
)

// CompatibilitySvc gates price conversion around subscription lifecycle
// states. All predicates are pure functions of the explicit context they
// receive.
type CompatibilitySvc interface {
	// ShouldConvertProductPrice is false when the product price is already
	// marked converted or a renewal/resubscribe total is being computed.
	ShouldConvertProductPrice(product domain.Product, cart domain.CartContext) bool

	// ShouldConvertCouponAmount is false for percentage coupons and for
	// recurring coupons during early/manual renewal recalculation.
	ShouldConvertCouponAmount(coupon domain.Coupon, cart domain.CartContext) bool

	// OverrideSelectedCurrency returns the original order's currency code
	// when the cart holds a renewal, switch, or resubscribe; empty otherwise.
	OverrideSelectedCurrency(ctx context.Context, cart domain.CartContext) string

	// ShouldHideWidgets is true whenever the currency is forced and the
	// switcher UI must not be shown.
	ShouldHideWidgets(cart domain.CartContext) bool

	// ShouldDisableMixedCart is true when a subscription switch is present
	// and the cart must be limited to one item.
	ShouldDisableMixedCart(cart domain.CartContext) bool

	// AllowAutomaticSwitch is false when an active renewal context vetoes
	// geolocation-driven currency switching.
	AllowAutomaticSwitch(cart domain.CartContext) bool
}
