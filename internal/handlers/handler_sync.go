package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/dto"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/gin-gonic/gin"
)

// syncHandler handles HTTP requests triggering sync passes.
type syncHandler struct {
	syncService portssvc.SyncOrchestratorSvc
}

// newSyncHandler creates a new syncHandler.
func newSyncHandler(ss portssvc.SyncOrchestratorSvc) *syncHandler {
	return &syncHandler{
		syncService: ss,
	}
}

// registerSyncRoutes registers routes related to sync passes.
func registerSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncOrchestratorSvc) {
	h := newSyncHandler(syncService)

	sync := rg.Group("/sync")
	{
		sync.POST("", h.triggerSync)
	}
}

// triggerSync godoc
// @Summary Run a sync pass over all linked items
// @Description Runs the transaction and investment sync engines for every linked item and triggers AI categorization for newly added transactions. Unset request fields default to true.
// @Tags sync
// @Accept json
// @Produce json
// @Param options body dto.TriggerSyncRequest false "Engine selection"
// @Success 200 {object} domain.SyncSummary
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Sync pass failed"
// @Router /sync [post]
func (h *syncHandler) triggerSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	req := dto.TriggerSyncRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for TriggerSync", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	summary, err := h.syncService.SyncItems(c.Request.Context(), req.ToSyncOptions())
	if err != nil {
		logger.Error("Sync pass failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run sync pass"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
