package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"desa-portal/internal/middleware"
	"desa-portal/internal/models"
	"desa-portal/internal/services"
	"desa-portal/internal/store"

	"github.com/gin-gonic/gin"
)

type LetterRequestHandler struct {
	requests *services.LetterRequestService
	log      *slog.Logger
}

func NewLetterRequestHandler(requests *services.LetterRequestService, log *slog.Logger) *LetterRequestHandler {
	return &LetterRequestHandler{requests: requests, log: log}
}

// Submit files a new request for a resident
// POST /api/v1/letters/requests
func (h *LetterRequestHandler) Submit(c *gin.Context) {
	var in services.SubmitLetterRequestInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	req, err := h.requests.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": req})
}

// List pages requests with optional status, templateId, pendudukId and search filters
// GET /admin/letter-requests
func (h *LetterRequestHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	filter := store.RequestFilter{
		TemplateID: c.Query("templateId"),
		PendudukID: c.Query("pendudukId"),
		Search:     c.Query("search"),
		Page:       page,
		Limit:      limit,
	}
	if status := c.Query("status"); status != "" {
		filter.Status = models.LetterStatus(status)
	}

	list, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list.Data, "pagination": gin.H{
		"total":      list.Total,
		"page":       list.Page,
		"limit":      list.Limit,
		"totalPages": list.TotalPages,
	}})
}

// GET /admin/letter-requests/:id
func (h *LetterRequestHandler) Get(c *gin.Context) {
	req, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": req})
}

// DELETE /admin/letter-requests/:id
func (h *LetterRequestHandler) Delete(c *gin.Context) {
	if err := h.requests.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Permohonan surat dihapus"})
}

// Approve assigns the letter number and mints the verification code
// POST /admin/letter-requests/:id/approve
func (h *LetterRequestHandler) Approve(c *gin.Context) {
	var in services.ApproveInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	res, err := h.requests.Approve(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserIDKey), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"letterNumber":     res.LetterNumber,
		"verificationCode": res.VerificationCode,
		"request":          res.Request,
	})
}

// PATCH /admin/letter-requests/:id/status
func (h *LetterRequestHandler) UpdateStatus(c *gin.Context) {
	var in services.UpdateStatusInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	req, err := h.requests.UpdateStatus(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserIDKey), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": req})
}

// GET /admin/letter-requests/:id/content
func (h *LetterRequestHandler) Content(c *gin.Context) {
	content, err := h.requests.RenderContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": content})
}

// POST /admin/letter-requests/:id/pdf
func (h *LetterRequestHandler) GeneratePDF(c *gin.Context) {
	res, err := h.requests.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// DownloadPDF streams the stored PDF
// GET /admin/letter-requests/:id/pdf
func (h *LetterRequestHandler) DownloadPDF(c *gin.Context) {
	body, filename, err := h.requests.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		h.log.WarnContext(c.Request.Context(), "pdf download interrupted", "request_id", c.Param("id"), "error", err)
	}
}
