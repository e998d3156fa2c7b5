package domain

// PriceType identifies what kind of amount is being converted. Customer-facing
// sticker prices (product, shipping) get rounding and charm adjustment;
// proportional amounts (tax, coupon, exchange_rate) are converted raw.
type PriceType string

const (
	PriceTypeProduct      PriceType = "product"
	PriceTypeShipping     PriceType = "shipping"
	PriceTypeTax          PriceType = "tax"
	PriceTypeCoupon       PriceType = "coupon"
	PriceTypeExchangeRate PriceType = "exchange_rate"
)

// Known reports whether the price type is one the conversion engine
// recognizes. Unknown types pass through unconverted.
func (t PriceType) Known() bool {
	switch t {
	case PriceTypeProduct, PriceTypeShipping, PriceTypeTax, PriceTypeCoupon, PriceTypeExchangeRate:
		return true
	}
	return false
}

// PricingContext names the higher-level operation a conversion call is part
// of. Callers pass it explicitly instead of the engine inspecting its call
// stack.
type PricingContext string

const (
	ContextStandardCheckout PricingContext = "standard_checkout"
	ContextRenewalTotal     PricingContext = "renewal_total"
	ContextSwitchTotal      PricingContext = "switch_total"
	ContextResubscribeTotal PricingContext = "resubscribe_total"
	ContextEarlyRenewal     PricingContext = "early_renewal"
)

// CartContext describes the subscription-related state of the current cart.
// At most one of the order IDs is expected to be set.
type CartContext struct {
	RenewalOrderID     string         `json:"renewalOrderID,omitempty"`
	SwitchOrderID      string         `json:"switchOrderID,omitempty"`
	ResubscribeOrderID string         `json:"resubscribeOrderID,omitempty"`
	Pricing            PricingContext `json:"pricing,omitempty"`
}

// ForcingOrderID returns the ID of the order whose original currency must be
// preserved, or empty when the cart carries no such constraint.
func (c CartContext) ForcingOrderID() string {
	switch {
	case c.RenewalOrderID != "":
		return c.RenewalOrderID
	case c.SwitchOrderID != "":
		return c.SwitchOrderID
	case c.ResubscribeOrderID != "":
		return c.ResubscribeOrderID
	}
	return ""
}

// HasForcedCurrency reports whether the cart is in a renewal, switch, or
// resubscribe state that pins the currency to an earlier order's.
func (c CartContext) HasForcedCurrency() bool {
	return c.ForcingOrderID() != ""
}

// HasSwitch reports whether a subscription switch is present in the cart.
func (c CartContext) HasSwitch() bool {
	return c.SwitchOrderID != ""
}

// Product is the read-only view of a catalog product the pricing engine
// consumes. The engine never constructs or persists products.
type Product struct {
	ID               string
	PriceConverted   bool // meta flag: add-on adjusted price already converted
	SubscriptionType string
}

// CouponType classifies a coupon's discount semantics.
type CouponType string

const (
	CouponTypePercent        CouponType = "percent"
	CouponTypeFixed          CouponType = "fixed_cart"
	CouponTypeFixedProduct   CouponType = "fixed_product"
	CouponTypeRecurringFee   CouponType = "recurring_fee"
	CouponTypeRecurringPct   CouponType = "recurring_percent"
)

// Coupon is the read-only coupon view consumed by the compatibility policy.
type Coupon struct {
	Code string
	Type CouponType
}

// IsPercentage reports whether the coupon discounts by percentage; such
// amounts are currency-agnostic and never converted.
func (c Coupon) IsPercentage() bool {
	return c.Type == CouponTypePercent || c.Type == CouponTypeRecurringPct
}

// IsRecurring reports whether the coupon applies to subscription renewals.
func (c Coupon) IsRecurring() bool {
	return c.Type == CouponTypeRecurringFee || c.Type == CouponTypeRecurringPct
}
