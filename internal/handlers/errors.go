package handlers

import (
	"log/slog"
	"net/http"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/utils"

	"github.com/gin-gonic/gin"
)

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindValidation, apperrors.KindNotIssued:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {success:false, error, code}. System errors are
// logged here and reach the client only as a generic message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   apperrors.Message(err),
		"code":    kind,
	})
}

// bindJSON binds the request body and answers 400 on failure
func bindJSON(c *gin.Context, log *slog.Logger, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, log, apperrors.Validation(utils.FormatValidationErrors(err)))
		return false
	}
	return true
}
