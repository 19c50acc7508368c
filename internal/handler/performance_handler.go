package handler

import (
	"net/http"

	"github.com/yourorg/forecast-service/internal/repository"
	"github.com/yourorg/forecast-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PerformanceHandler handles performance HTTP requests
type PerformanceHandler struct {
	performance *repository.PerformanceRepository
	logger      *zap.Logger
}

// NewPerformanceHandler creates a new performance handler
func NewPerformanceHandler(performance *repository.PerformanceRepository, logger *zap.Logger) *PerformanceHandler {
	return &PerformanceHandler{
		performance: performance,
		logger:      logger,
	}
}

// GetPerformance handles retrieving the latest performance snapshot for a symbol
// GET /api/v1/performance/:symbol
func (h *PerformanceHandler) GetPerformance(c *gin.Context) {
	symbol := c.Param("symbol")

	snap, err := h.performance.Latest(c.Request.Context(), symbol)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve performance")
		return
	}
	if snap == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "No scored predictions for symbol yet")
		return
	}

	c.JSON(http.StatusOK, snap)
}
