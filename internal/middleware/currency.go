package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storelens/multicurrency/internal/core/domain"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
)

// SessionCookieName identifies the anonymous visitor session.
const SessionCookieName = "store_session"

const sessionCookieTTL = 30 * 24 * time.Hour

// Headers the storefront proxy forwards with each request. The customer ID
// comes from its authentication layer; the cart headers describe any
// subscription order sitting in the cart.
const (
	headerCustomerID       = "X-Customer-ID"
	headerRenewalOrder     = "X-Cart-Renewal-Order"
	headerSwitchOrder      = "X-Cart-Switch-Order"
	headerResubscribeOrder = "X-Cart-Resubscribe-Order"
	headerPricingContext   = "X-Pricing-Context"
)

// CurrencySelection resolves the request's active currency before handlers
// run and flushes any deferred cart recalculation after they finish. The
// resolved state is stored in the Gin context for handlers via
// GetRequestState.
func CurrencySelection(selector portssvc.SelectionSvc, isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, _ := c.Cookie(SessionCookieName)
		signals := domain.RequestSignals{
			CurrencyParam: c.Query("currency"),
			SessionID:     sessionID,
			UserID:        c.GetHeader(headerCustomerID),
			UserAgent:     c.Request.UserAgent(),
			ClientIP:      c.ClientIP(),
			Cart:          cartContextFromRequest(c),
			// Cart totals are not computed until handlers run, so any
			// recalculation triggered during resolution is deferred and
			// flushed below.
			Bootstrapped: false,
		}
		state := domain.NewRequestState(signals)
		c.Set(string(requestStateKey), state)

		resolved := selector.Resolve(c.Request.Context(), state)

		if state.GeolocationApplied() && sessionID == "" {
			// Geolocation picked a non-default currency for a fresh visitor.
			// Establish a session now so the choice survives the next request.
			newSessionID := uuid.NewString()
			c.SetCookie(SessionCookieName, newSessionID, int(sessionCookieTTL.Seconds()), "/", "", isProduction, true)
			state.Signals.SessionID = newSessionID
			if err := selector.UpdateSelected(c.Request.Context(), state, resolved.Code, true); err != nil {
				GetLoggerFromCtx(c.Request.Context()).Warn("Failed to persist geolocated currency selection")
			}
		}

		name, value := selector.VaryCookie(resolved)
		c.SetCookie(name, value, int(sessionCookieTTL.Seconds()), "/", "", isProduction, false)

		c.Next()

		state.Signals.Bootstrapped = true
		selector.FlushDeferred(c.Request.Context(), state)
	}
}

// cartContextFromRequest assembles the subscription cart context the
// storefront forwards via headers.
func cartContextFromRequest(c *gin.Context) domain.CartContext {
	cart := domain.CartContext{
		RenewalOrderID:     c.GetHeader(headerRenewalOrder),
		SwitchOrderID:      c.GetHeader(headerSwitchOrder),
		ResubscribeOrderID: c.GetHeader(headerResubscribeOrder),
	}
	if raw := c.GetHeader(headerPricingContext); raw != "" {
		cart.Pricing = domain.PricingContext(raw)
	}
	return cart
}
