package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/forecast-service/internal/model"
	"github.com/yourorg/forecast-service/internal/repository"
	"github.com/yourorg/forecast-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PredictionHandler handles prediction HTTP requests
type PredictionHandler struct {
	predictions *repository.PredictionRepository
	logger      *zap.Logger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictions *repository.PredictionRepository, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger,
	}
}

// GetLatest handles retrieving the most recent prediction per horizon
// GET /api/v1/predictions/latest
func (h *PredictionHandler) GetLatest(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	horizons := model.Horizons
	if horizonStr := c.Query("horizon"); horizonStr != "" {
		horizon := model.Horizon(strings.ToUpper(horizonStr))
		if !horizon.Valid() {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid horizon. Use DAILY, WEEKLY or MONTHLY")
			return
		}
		horizons = []model.Horizon{horizon}
	}

	result := make(map[string]*model.PredictionRecord, len(horizons))
	for _, horizon := range horizons {
		rec, err := h.predictions.Latest(c.Request.Context(), symbol, horizon)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve predictions")
			return
		}
		if rec != nil {
			result[string(horizon)] = rec
		}
	}

	if len(result) == 0 {
		utils.SendErrorResponse(c, http.StatusNotFound, "No predictions found for symbol")
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "predictions": result})
}

// ListPredictions handles retrieving predictions with date filtering and pagination
// GET /api/v1/predictions
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	horizon := model.Horizon(strings.ToUpper(c.DefaultQuery("horizon", string(model.HorizonDaily))))
	if !horizon.Valid() {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid horizon. Use DAILY, WEEKLY or MONTHLY")
		return
	}

	var startDate, endDate *time.Time
	if startStr := c.Query("start_date"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid start_date format. Use YYYY-MM-DD")
			return
		}
		startDate = &parsed
	}
	if endStr := c.Query("end_date"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid end_date format. Use YYYY-MM-DD")
			return
		}
		endDate = &parsed
	}

	params := utils.ParsePaginationParams(c, 20, 100)
	offset := utils.CalculateOffset(params.Page, params.Limit)

	records, total, err := h.predictions.FindByDateRange(
		c.Request.Context(), symbol, horizon, startDate, endDate, params.Limit, offset)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve predictions")
		return
	}

	utils.SendPaginatedResponse(c, http.StatusOK, records, total, params.Page, params.Limit)
}

// GetByPeriod handles retrieving the prediction for an exact target period
// GET /api/v1/predictions/period/:key
func (h *PredictionHandler) GetByPeriod(c *gin.Context) {
	periodKey := c.Param("key")

	symbol := c.Query("symbol")
	if symbol == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Symbol is required")
		return
	}

	horizon := model.Horizon(strings.ToUpper(c.Query("horizon")))
	if !horizon.Valid() {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid horizon. Use DAILY, WEEKLY or MONTHLY")
		return
	}

	rec, err := h.predictions.FindByPeriod(c.Request.Context(), symbol, horizon, periodKey)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve prediction")
		return
	}
	if rec == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "No prediction for this period")
		return
	}

	c.JSON(http.StatusOK, rec)
}
