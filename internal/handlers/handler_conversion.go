package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storelens/multicurrency/internal/apperrors"
	"github.com/storelens/multicurrency/internal/core/domain"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/internal/dto"
	"github.com/storelens/multicurrency/internal/middleware"
	"github.com/storelens/multicurrency/internal/utils"
)

// conversionHandler handles price conversion previews.
type conversionHandler struct {
	conversionService portssvc.ConversionSvcFacade
	localeService     portssvc.LocaleSvc
}

func newConversionHandler(cs portssvc.ConversionSvcFacade, ls portssvc.LocaleSvc) *conversionHandler {
	return &conversionHandler{
		conversionService: cs,
		localeService:     ls,
	}
}

// registerConversionRoutes registers the conversion preview route.
func registerConversionRoutes(rg *gin.RouterGroup, conversionService portssvc.ConversionSvcFacade, localeService portssvc.LocaleSvc) {
	h := newConversionHandler(conversionService, localeService)
	rg.POST("/convert", h.convertPrice)
}

// convertPrice converts an amount. Without explicit from/to codes the amount
// is converted into the request's selected currency with the price type's
// adjustment rules applied; with explicit codes a raw cross-rate conversion
// is performed.
func (h *conversionHandler) convertPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ConvertPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ConvertPrice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if req.To != "" || req.From != "" {
		h.convertRaw(c, req)
		return
	}

	state, ok := middleware.GetRequestState(c)
	if !ok {
		logger.Error("Request state not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Currency resolution unavailable"})
		return
	}

	converted := h.conversionService.GetPrice(c.Request.Context(), state, req.Amount, domain.PriceType(req.PriceType))

	currency, err := h.conversionService.GetSelectedCurrency(c.Request.Context(), state)
	if err != nil {
		logger.Error("Failed to resolve selected currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve selected currency"})
		return
	}

	spec, _ := h.localeService.GetFormat(c.Request.Context(), currency.Code)
	c.JSON(http.StatusOK, dto.ConvertPriceResponse{
		Amount:    req.Amount.String(),
		Converted: converted.String(),
		Currency:  currency.Code,
		Formatted: utils.FormatPrice(converted, spec, currency.Symbol),
	})
}

// convertRaw performs a cross-rate conversion between two enabled currencies.
func (h *conversionHandler) convertRaw(c *gin.Context, req dto.ConvertPriceRequest) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	to := strings.ToUpper(req.To)
	from := strings.ToUpper(req.From)

	converted, err := h.conversionService.GetRawConversion(c.Request.Context(), req.Amount, to, from)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCurrency) || errors.Is(err, apperrors.ErrInvalidCurrencyRate) {
			logger.Warn("Raw conversion rejected", slog.String("to", to), slog.String("from", from), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Raw conversion failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to convert amount"})
		}
		return
	}

	spec, _ := h.localeService.GetFormat(c.Request.Context(), to)
	c.JSON(http.StatusOK, dto.ConvertPriceResponse{
		Amount:    req.Amount.String(),
		Converted: converted.String(),
		Currency:  to,
		Formatted: utils.FormatPrice(converted, spec, h.localeService.CurrencySymbol(c.Request.Context(), to)),
	})
}
