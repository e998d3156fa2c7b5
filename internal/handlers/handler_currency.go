package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/internal/dto"
	"github.com/storelens/multicurrency/internal/middleware"
)

// currencyHandler handles the merchant-facing currency configuration routes.
type currencyHandler struct {
	conversionService portssvc.ConversionSvcFacade
}

// newCurrencyHandler creates a new currencyHandler.
func newCurrencyHandler(cs portssvc.ConversionSvcFacade) *currencyHandler {
	return &currencyHandler{
		conversionService: cs,
	}
}

// registerCurrencyRoutes registers the currency configuration routes.
func registerCurrencyRoutes(rg *gin.RouterGroup, conversionService portssvc.ConversionSvcFacade) {
	h := newCurrencyHandler(conversionService)

	currencies := rg.Group("/currencies")
	{
		currencies.GET("", h.getStoreCurrencies)
		currencies.PUT("/enabled", h.updateEnabledCurrencies)
		currencies.GET("/notices", h.getManualRateNotices)
		currencies.DELETE("/notices", h.clearManualRateNotices)
		currencies.GET("/:code/settings", h.getCurrencySettings)
		currencies.PUT("/:code/settings", h.updateCurrencySettings)
	}
}

// getStoreCurrencies returns the store's currency overview: everything that
// could be enabled, what currently is, the default, and every currency
// customers have transacted in.
func (h *currencyHandler) getStoreCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ctx := c.Request.Context()

	available, err := h.conversionService.GetAvailableCurrencies(ctx)
	if err != nil {
		logger.Error("Failed to list available currencies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list currencies"})
		return
	}

	enabled, err := h.conversionService.GetEnabledCurrencies(ctx)
	if err != nil {
		logger.Error("Failed to list enabled currencies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list currencies"})
		return
	}

	def, err := h.conversionService.GetDefaultCurrency(ctx)
	if err != nil {
		logger.Error("Failed to load default currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list currencies"})
		return
	}

	customerCurrencies, err := h.conversionService.GetAllCustomerCurrencies(ctx)
	if err != nil {
		logger.Warn("Failed to list customer currencies", slog.String("error", err.Error()))
		customerCurrencies = nil
	}

	logger.Info("Store currencies listed", slog.Int("available", len(available)), slog.Int("enabled", len(enabled)))
	c.JSON(http.StatusOK, dto.StoreCurrenciesResponse{
		Available:          dto.ToListCurrencyResponse(available),
		Enabled:            dto.ToListCurrencyResponse(enabled),
		Default:            dto.ToCurrencyResponse(def),
		CustomerCurrencies: customerCurrencies,
	})
}

// updateEnabledCurrencies replaces the merchant's enabled-currency set.
func (h *currencyHandler) updateEnabledCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateEnabledCurrenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateEnabledCurrencies", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to update enabled currencies", slog.Int("count", len(req.Codes)))

	if err := h.conversionService.SetEnabledCurrencies(c.Request.Context(), req.Codes); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCurrency) {
			logger.Warn("Attempted to enable unknown currencies", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update enabled currencies", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update enabled currencies"})
		}
		return
	}

	enabled, err := h.conversionService.GetEnabledCurrencies(c.Request.Context())
	if err != nil {
		logger.Error("Failed to reload enabled currencies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload enabled currencies"})
		return
	}

	logger.Info("Enabled currencies updated", slog.Int("count", len(enabled)))
	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(enabled))
}

// getCurrencySettings returns the per-currency configuration for a code.
func (h *currencyHandler) getCurrencySettings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := strings.ToUpper(c.Param("code"))
	if len(code) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Currency code must be 3 letters"})
		return
	}

	logger = logger.With(slog.String("currency_code", code))
	settings, err := h.conversionService.GetSingleCurrencySettings(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCurrency) {
			logger.Warn("Settings requested for unknown currency")
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Currency '%s' is not available", code)})
		} else {
			logger.Error("Failed to load currency settings", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load currency settings"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencySettingsResponse(settings))
}

// updateCurrencySettings persists per-currency configuration.
func (h *currencyHandler) updateCurrencySettings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := strings.ToUpper(c.Param("code"))
	if len(code) != 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Currency code must be 3 letters"})
		return
	}

	var req dto.CurrencySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateCurrencySettings", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settings, err := settingsFromRequest(req)
	if err != nil {
		logger.Warn("Invalid currency settings payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger = logger.With(slog.String("currency_code", code))
	logger.Info("Received request to update currency settings", slog.String("rate_type", string(settings.ExchangeRateType)))

	if err := h.conversionService.UpdateSingleCurrencySettings(c.Request.Context(), code, settings); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCurrency):
			logger.Warn("Settings update for unknown currency")
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Currency '%s' is not available", code)})
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidCurrencyRate):
			logger.Warn("Validation error updating currency settings", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update currency settings", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update currency settings"})
		}
		return
	}

	logger.Info("Currency settings updated successfully")
	c.JSON(http.StatusOK, dto.ToCurrencySettingsResponse(settings))
}

// getManualRateNotices lists currencies flagged for manual rate review after
// the store's base currency changed.
func (h *currencyHandler) getManualRateNotices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	codes, err := h.conversionService.GetManualRateNotices(c.Request.Context())
	if err != nil {
		logger.Error("Failed to load manual rate notices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notices"})
		return
	}

	c.JSON(http.StatusOK, dto.ManualRateNoticesResponse{Currencies: codes})
}

// clearManualRateNotices dismisses the manual rate review notice.
func (h *currencyHandler) clearManualRateNotices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	if err := h.conversionService.ClearManualRateNotices(c.Request.Context()); err != nil {
		logger.Error("Failed to clear manual rate notices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear notices"})
		return
	}

	logger.Info("Manual rate notices cleared")
	c.Status(http.StatusNoContent)
}

// settingsFromRequest parses the string-typed settings payload into domain
// values. Decimal fields are validated here so the service only sees parsed
// values.
func settingsFromRequest(req dto.CurrencySettingsRequest) (domain.CurrencySettings, error) {
	settings := domain.CurrencySettings{
		ExchangeRateType: domain.RateMode(req.ExchangeRateType),
		PriceRounding:    req.PriceRounding,
	}

	charm, err := decimal.NewFromString(req.PriceCharm)
	if err != nil {
		return domain.CurrencySettings{}, fmt.Errorf("%w: invalid price charm '%s'", apperrors.ErrValidation, req.PriceCharm)
	}
	settings.PriceCharm = charm

	if req.ManualRate != nil {
		rate, err := decimal.NewFromString(*req.ManualRate)
		if err != nil {
			return domain.CurrencySettings{}, fmt.Errorf("%w: invalid manual rate '%s'", apperrors.ErrValidation, *req.ManualRate)
		}
		settings.ManualRate = &rate
	}

	return settings, nil
}
