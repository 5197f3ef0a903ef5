package demandforecast

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/grid"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
	"github.com/richxcame/demand-forecasting/pkg/common"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"github.com/richxcame/demand-forecasting/pkg/validation"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for demand forecasting
type Handler struct {
	service   *Service
	histories *Histories
	methods   Methods
}

// NewHandler creates a new demand forecast handler
func NewHandler(service *Service, histories *Histories, m Methods) *Handler {
	return &Handler{service: service, histories: histories, methods: m}
}

// ========================================
// FORECAST ENDPOINTS
// ========================================

// MakeForecast returns the forecast for one pixel and bucket, computing it if needed
// POST /api/v1/forecasts
func (h *Handler) MakeForecast(c *gin.Context) {
	var req MakeForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	history, err := h.histories.Get(ctx, req.GridID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	model, err := NewModel(req.Model, history, h.methods)
	if err != nil {
		h.respondError(c, err)
		return
	}

	forecast, err := h.service.MakeForecast(ctx, model, req.PixelID, req.PredictAt.UTC(), req.TrainHorizon)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, forecast)
}

// ListPixelForecasts returns a pixel's stored forecasts
// GET /api/v1/pixels/:pixel_id/forecasts?from=2017-01-01&to=2017-01-08
func (h *Handler) ListPixelForecasts(c *gin.Context) {
	pixelID, err := uuid.Parse(c.Param("pixel_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid pixel id")
		return
	}

	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "from must be a date (YYYY-MM-DD)")
		return
	}
	to := from.AddDate(0, 0, 1)
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.DateOnly, raw); err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "to must be a date (YYYY-MM-DD)")
			return
		}
	}

	forecasts, err := h.service.ListForecasts(c.Request.Context(), pixelID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponseWithMeta(c, forecasts, &common.Meta{Total: len(forecasts)})
}

// ListModels returns the registered model names
// GET /api/v1/models
func (h *Handler) ListModels(c *gin.Context) {
	common.SuccessResponse(c, gin.H{"models": ModelNames()})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *common.AppError
	switch {
	case errors.Is(err, ErrUnknownModel), errors.Is(err, orderhistory.ErrInvalidHorizon), errors.Is(err, ErrInvalidRange):
		appErr = common.NewBadRequestError(err.Error(), err)
	case errors.Is(err, grid.ErrGridNotFound), errors.Is(err, orderhistory.ErrLookup):
		appErr = common.NewNotFoundError(err.Error(), err)
	case errors.Is(err, orderhistory.ErrInsufficientHistory):
		appErr = common.NewUnprocessableError(err.Error(), err)
	case errors.Is(err, ErrIntegrity):
		appErr = common.NewConflictError(err.Error(), err)
	default:
		logger.WithContext(c.Request.Context()).Error("Forecast request failed", zap.Error(err))
		appErr = common.NewInternalServerError("failed to make forecast")
	}
	common.AppErrorResponse(c, appErr)
}

// ========================================
// ROUTE REGISTRATION
// ========================================

// RegisterRoutes registers demand forecast routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/models", h.ListModels)
	r.POST("/forecasts", h.MakeForecast)
	r.GET("/pixels/:pixel_id/forecasts", h.ListPixelForecasts)
}
