package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/services"
	"desa-portal/internal/utils"

	"github.com/gin-gonic/gin"
)

type LetterTemplateHandler struct {
	templates *services.LetterTemplateService
	log       *slog.Logger
}

func NewLetterTemplateHandler(templates *services.LetterTemplateService, log *slog.Logger) *LetterTemplateHandler {
	return &LetterTemplateHandler{templates: templates, log: log}
}

// ListPublic returns the letters citizens can request
// GET /api/v1/letters/templates
func (h *LetterTemplateHandler) ListPublic(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": templates})
}

// List returns all templates, or only active ones with ?active=true
// GET /admin/letter-templates
func (h *LetterTemplateHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	templates, err := h.templates.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": templates})
}

// POST /admin/letter-templates
func (h *LetterTemplateHandler) Create(c *gin.Context) {
	var in services.CreateLetterTemplateInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	tpl, err := h.templates.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": tpl})
}

// GET /admin/letter-templates/:id
func (h *LetterTemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tpl})
}

// PUT /admin/letter-templates/:id
func (h *LetterTemplateHandler) Update(c *gin.Context) {
	var in services.UpdateLetterTemplateInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": tpl})
}

// DELETE /admin/letter-templates/:id
func (h *LetterTemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template surat dihapus"})
}

// GET /admin/letter-templates/:id/placeholders
func (h *LetterTemplateHandler) Placeholders(c *gin.Context) {
	report, err := h.templates.Placeholders(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// Preview accepts an optional draft body and sample form data
// POST /admin/letter-templates/:id/preview
func (h *LetterTemplateHandler) Preview(c *gin.Context) {
	var in services.PreviewInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.log, apperrors.Validation(utils.FormatValidationErrors(err)))
		return
	}
	res, err := h.templates.Preview(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": res})
}

// POST /admin/letter-templates/initialize
func (h *LetterTemplateHandler) Initialize(c *gin.Context) {
	created, err := h.templates.InitializeDefaultTemplates(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}
