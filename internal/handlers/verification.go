package handlers

import (
	"log/slog"
	"net/http"

	"desa-portal/internal/services"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verifier *services.VerificationService
	log      *slog.Logger
}

func NewVerificationHandler(verifier *services.VerificationService, log *slog.Logger) *VerificationHandler {
	return &VerificationHandler{verifier: verifier, log: log}
}

// Verify checks a letter by its code and the holder's NIK
// POST /api/v1/letters/verify
func (h *VerificationHandler) Verify(c *gin.Context) {
	var in services.VerifyInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	content, err := h.verifier.Verify(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": content})
}
