package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/store"
)

type MappingHandler struct {
	mappings *store.MappingStore
	logger   *logger.Logger
}

func NewMappingHandler(mappings *store.MappingStore, logger *logger.Logger) *MappingHandler {
	return &MappingHandler{mappings: mappings, logger: logger}
}

func (h *MappingHandler) ListListings(c *gin.Context) {
	mappings, err := h.mappings.ListListingMappings(c.Request.Context(), c.Query("provider"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch listing mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings, "total": len(mappings)})
}

func (h *MappingHandler) ListBookings(c *gin.Context) {
	mappings, err := h.mappings.ListBookingMappings(c.Request.Context(), c.Query("provider"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch booking mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings, "total": len(mappings)})
}

type toggleRequest struct {
	SyncEnabled *bool `json:"sync_enabled" binding:"required"`
}

// ToggleListing handles PATCH /api/v1/mappings/listings/:id. Disabling sync
// keeps the mapping row; the listing just stops participating in passes.
func (h *MappingHandler) ToggleListing(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sync_enabled is required"})
		return
	}
	if err := h.mappings.SetListingSyncEnabled(c.Request.Context(), c.Param("id"), *req.SyncEnabled); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
