package grid

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/geography"
	"github.com/richxcame/demand-forecasting/pkg/common"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"github.com/richxcame/demand-forecasting/pkg/validation"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for grids
type Handler struct {
	builder *Builder
	grids   RepositoryInterface
}

// NewHandler creates a new grid handler
func NewHandler(builder *Builder, grids RepositoryInterface) *Handler {
	return &Handler{builder: builder, grids: grids}
}

// GridifyRequest asks for a new grid over a city
type GridifyRequest struct {
	CityID     uuid.UUID `json:"city_id" validate:"required"`
	SideLength int       `json:"side_length" validate:"gt=0"`
}

// ========================================
// GRID ENDPOINTS
// ========================================

// Gridify builds a grid
// POST /api/v1/grids
func (h *Handler) Gridify(c *gin.Context) {
	var req GridifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	grid, err := h.builder.Gridify(c.Request.Context(), req.CityID, req.SideLength)
	if err != nil {
		switch {
		case errors.Is(err, geography.ErrCityNotFound):
			common.ErrorResponse(c, http.StatusNotFound, "city not found")
		case errors.Is(err, ErrGridExists):
			common.ErrorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidSideLength):
			common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		default:
			logger.WithContext(c.Request.Context()).Error("Failed to gridify city", zap.Error(err))
			common.ErrorResponse(c, http.StatusInternalServerError, "failed to create grid")
		}
		return
	}

	common.SuccessResponseWithStatus(c, http.StatusCreated, grid)
}

// ListCityGrids lists the grids of a city
// GET /api/v1/cities/:city_id/grids
func (h *Handler) ListCityGrids(c *gin.Context) {
	cityID, err := uuid.Parse(c.Param("city_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid city id")
		return
	}

	grids, err := h.grids.ListGridsByCity(c.Request.Context(), cityID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list grids")
		return
	}

	common.SuccessResponseWithMeta(c, grids, &common.Meta{Total: len(grids)})
}

// GetPixels renders a grid's pixels as GeoJSON
// GET /api/v1/grids/:grid_id/pixels
func (h *Handler) GetPixels(c *gin.Context) {
	gridID, err := uuid.Parse(c.Param("grid_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid grid id")
		return
	}

	fc, err := h.builder.PixelFeatures(c.Request.Context(), gridID)
	if err != nil {
		if errors.Is(err, ErrGridNotFound) {
			common.ErrorResponse(c, http.StatusNotFound, "grid not found")
			return
		}
		logger.WithContext(c.Request.Context()).Error("Failed to render pixels", zap.Error(err))
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to render pixels")
		return
	}

	c.JSON(http.StatusOK, fc)
}

// ========================================
// ROUTE REGISTRATION
// ========================================

// RegisterRoutes registers grid routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/grids", h.Gridify)
	r.GET("/grids/:grid_id/pixels", h.GetPixels)
	r.GET("/cities/:city_id/grids", h.ListCityGrids)
}
