package handlers

import (
	"github.com/gin-gonic/gin"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/internal/middleware"
	"github.com/storelens/multicurrency/pkg/config"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using
// interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	rateLimiter *limiter.Limiter,
	conversionService portssvc.ConversionSvcFacade,
	selectionService portssvc.SelectionSvc,
	compatService portssvc.CompatibilitySvc,
	localeService portssvc.LocaleSvc,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, rateLimiter, conversionService, selectionService, compatService, localeService)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	rateLimiter *limiter.Limiter,
	conversionService portssvc.ConversionSvcFacade,
	selectionService portssvc.SelectionSvc,
	compatService portssvc.CompatibilitySvc,
	localeService portssvc.LocaleSvc,
) {
	// Every v1 request passes through rate limiting and currency selection so
	// handlers can rely on the resolved request state.
	v1 := r.Group("/api/v1",
		middleware.RateLimit(rateLimiter),
		middleware.CurrencySelection(selectionService, cfg.IsProduction),
	)

	registerCurrencyRoutes(v1, conversionService)
	registerSelectionRoutes(v1, conversionService, compatService)
	registerConversionRoutes(v1, conversionService, localeService)
}
