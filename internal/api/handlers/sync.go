package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/git-seb/rental-sync-engine/internal/logger"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
)

type SyncHandler struct {
	orchestrator *syncer.Orchestrator
	logger       *logger.Logger
}

func NewSyncHandler(orchestrator *syncer.Orchestrator, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator, logger: logger}
}

type syncRequest struct {
	Provider string `json:"provider"`
	Scope    string `json:"scope"`
}

// Trigger handles POST /api/v1/sync: run a sync pass now and return the
// aggregate result. An empty provider means all enabled providers.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	scope, err := syncer.ParseScope(req.Scope)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orchestrator.TriggerSync(c.Request.Context(), req.Provider, scope)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// PushOrder handles POST /api/v1/orders/:id/push: send a locally created
// order to the provider its product was synced from.
func (h *SyncHandler) PushOrder(c *gin.Context) {
	mapping, err := h.orchestrator.PushBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Push failed for order %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mapping": mapping})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel: cancel the remote
// booking an order was pushed to, then mark the local order and mapping
// cancelled.
func (h *SyncHandler) CancelOrder(c *gin.Context) {
	mapping, err := h.orchestrator.CancelBookingRemote(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Cancel failed for order %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "mapping": mapping})
}
