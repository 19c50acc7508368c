package handler

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/yourorg/forecast-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PipelineHandler exposes the batch pipeline to service-to-service
// callers. Only one run may be in flight at a time.
type PipelineHandler struct {
	pipeline *service.PipelineService
	running  atomic.Bool
	logger   *zap.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipeline *service.PipelineService, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// TriggerRun handles starting a pipeline cycle in the background
// POST /api/v1/service/pipeline/run
func (h *PipelineHandler) TriggerRun(c *gin.Context) {
	if !h.running.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "Pipeline run already in progress"})
		return
	}

	go func() {
		defer h.running.Store(false)

		// Detached from the request: the trigger returns immediately and
		// the cycle finishes on its own schedule.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()

		if err := h.pipeline.Run(ctx, time.Now()); err != nil {
			h.logger.Error("Triggered pipeline run failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "pipeline run started"})
}
