package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/models"
	"github.com/git-seb/rental-sync-engine/internal/store"
)

type LogHandler struct {
	syncLog *store.SyncLog
	logger  *logger.Logger
}

func NewLogHandler(syncLog *store.SyncLog, logger *logger.Logger) *LogHandler {
	return &LogHandler{syncLog: syncLog, logger: logger}
}

// List handles GET /api/v1/logs with optional provider, type and limit
// query filters.
func (h *LogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.syncLog.Recent(
		c.Request.Context(),
		c.Query("provider"),
		models.SyncType(c.Query("type")),
		limit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sync logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "total": len(entries)})
}
