package handlers

import (
	"desa-portal/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Routes holds every handler mounted on the router
type Routes struct {
	Templates    *LetterTemplateHandler
	Requests     *LetterRequestHandler
	Verification *VerificationHandler
	Statistics   *StatisticsHandler
	Logs         *LogsHandler
}

// Register mounts the public API under /api/v1 and the admin API under
// /admin behind token and role checks.
func (rt *Routes) Register(r *gin.Engine, tokens *middleware.TokenVerifier) {
	v1 := r.Group("/api/v1/letters")
	{
		v1.GET("/templates", rt.Templates.ListPublic)
		v1.POST("/requests", rt.Requests.Submit)
		v1.POST("/verify", rt.Verification.Verify)
	}

	admin := r.Group("/admin", middleware.RequireAdmin(tokens)...)
	{
		templates := admin.Group("/letter-templates")
		templates.GET("", rt.Templates.List)
		templates.POST("", rt.Templates.Create)
		templates.POST("/initialize", rt.Templates.Initialize)
		templates.GET("/:id", rt.Templates.Get)
		templates.PUT("/:id", rt.Templates.Update)
		templates.DELETE("/:id", rt.Templates.Delete)
		templates.GET("/:id/placeholders", rt.Templates.Placeholders)
		templates.POST("/:id/preview", rt.Templates.Preview)

		requests := admin.Group("/letter-requests")
		requests.GET("", rt.Requests.List)
		requests.GET("/:id", rt.Requests.Get)
		requests.DELETE("/:id", rt.Requests.Delete)
		requests.POST("/:id/approve", rt.Requests.Approve)
		requests.PATCH("/:id/status", rt.Requests.UpdateStatus)
		requests.GET("/:id/content", rt.Requests.Content)
		requests.POST("/:id/pdf", rt.Requests.GeneratePDF)
		requests.GET("/:id/pdf", rt.Requests.DownloadPDF)

		admin.GET("/statistics/letters", rt.Statistics.GetLetterStatistics)
		admin.GET("/statistics/templates/:templateId", rt.Statistics.GetTemplateStats)
		admin.GET("/logs", rt.Logs.GetAllLogs)
	}
}
