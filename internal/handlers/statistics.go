package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"desa-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService *services.StatisticsService
	log               *slog.Logger
}

func NewStatisticsHandler(statisticsService *services.StatisticsService, log *slog.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		log:               log,
	}
}

// GetLetterStatistics returns request counts per status and daily event series
// GET /admin/statistics/letters?days=30
func (h *StatisticsHandler) GetLetterStatistics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	stats, err := h.statisticsService.GetLetterStatistics(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// GetTemplateStats returns event totals for one template
// GET /admin/statistics/templates/:templateId
func (h *StatisticsHandler) GetTemplateStats(c *gin.Context) {
	templateID := c.Param("templateId")

	totals, err := h.statisticsService.GetTemplateTotals(c.Request.Context(), templateID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templateId": templateID, "data": totals})
}
