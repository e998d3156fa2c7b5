package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storelens/multicurrency/internal/apperrors"
	portssvc "github.com/storelens/multicurrency/internal/core/ports/services"
	"github.com/storelens/multicurrency/internal/dto"
	"github.com/storelens/multicurrency/internal/middleware"
)

// selectionHandler handles the shopper-facing selected-currency routes.
type selectionHandler struct {
	conversionService portssvc.ConversionSvcFacade
	compatService     portssvc.CompatibilitySvc
}

func newSelectionHandler(cs portssvc.ConversionSvcFacade, compat portssvc.CompatibilitySvc) *selectionHandler {
	return &selectionHandler{
		conversionService: cs,
		compatService:     compat,
	}
}

// registerSelectionRoutes registers the selected-currency routes.
func registerSelectionRoutes(rg *gin.RouterGroup, conversionService portssvc.ConversionSvcFacade, compat portssvc.CompatibilitySvc) {
	h := newSelectionHandler(conversionService, compat)

	selected := rg.Group("/selected")
	{
		selected.GET("", h.getSelectedCurrency)
		selected.PUT("", h.updateSelectedCurrency)
	}
}

// getSelectedCurrency returns the active currency for this request, resolved
// by the selection middleware's precedence chain.
func (h *selectionHandler) getSelectedCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	state, ok := middleware.GetRequestState(c)
	if !ok {
		logger.Error("Request state not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Currency resolution unavailable"})
		return
	}

	currency, err := h.conversionService.GetSelectedCurrency(c.Request.Context(), state)
	if err != nil {
		logger.Error("Failed to resolve selected currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve selected currency"})
		return
	}

	c.JSON(http.StatusOK, dto.SelectedCurrencyResponse{
		Currency:    dto.ToCurrencyResponse(currency),
		HideWidgets: h.compatService.ShouldHideWidgets(state.Signals.Cart),
	})
}

// updateSelectedCurrency records an explicit currency choice for the visitor.
func (h *selectionHandler) updateSelectedCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateSelectedCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateSelectedCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	state, ok := middleware.GetRequestState(c)
	if !ok {
		logger.Error("Request state not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Currency resolution unavailable"})
		return
	}

	logger = logger.With(slog.String("currency_code", req.Code))
	logger.Info("Received request to update selected currency")

	if err := h.conversionService.UpdateSelectedCurrency(c.Request.Context(), state, req.Code); err != nil {
		if errors.Is(err, apperrors.ErrInvalidCurrency) {
			logger.Warn("Selection of unknown currency rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update selected currency", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update selected currency"})
		}
		return
	}

	currency, err := h.conversionService.GetSelectedCurrency(c.Request.Context(), state)
	if err != nil {
		logger.Error("Failed to reload selected currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload selected currency"})
		return
	}

	logger.Info("Selected currency updated successfully")
	c.JSON(http.StatusOK, dto.SelectedCurrencyResponse{
		Currency:    dto.ToCurrencyResponse(currency),
		HideWidgets: h.compatService.ShouldHideWidgets(state.Signals.Cart),
	})
}
