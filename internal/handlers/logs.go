package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"desa-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
	log                *slog.Logger
}

func NewLogsHandler(activityLogService *services.ActivityLogService, log *slog.Logger) *LogsHandler {
	return &LogsHandler{activityLogService: activityLogService, log: log}
}

// GetAllLogs returns recent activity, newest first
// GET /admin/logs?limit=50&offset=0
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.activityLogService.GetAllLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
