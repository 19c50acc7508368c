package handler

import (
	"net/http"

	"github.com/yourorg/forecast-service/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SymbolHandler handles symbol universe HTTP requests
type SymbolHandler struct {
	universe *model.SymbolUniverse
	logger   *zap.Logger
}

// NewSymbolHandler creates a new symbol handler
func NewSymbolHandler(universe *model.SymbolUniverse, logger *zap.Logger) *SymbolHandler {
	return &SymbolHandler{
		universe: universe,
		logger:   logger,
	}
}

// ListSymbols handles listing the configured forecast universe
// GET /api/v1/symbols
func (h *SymbolHandler) ListSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": h.universe.All()})
}
