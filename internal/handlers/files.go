package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/storage"

	"github.com/gin-gonic/gin"
)

// SignedFileVerifier checks links produced by the local storage client
type SignedFileVerifier interface {
	VerifySignedURL(objectName string, expiresAt int64, signature string) bool
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
}

// ServeSignedFile serves local storage objects behind signed links
// GET /files/*filepath?expires=..&signature=..
func ServeSignedFile(files SignedFileVerifier, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		objectName := strings.TrimPrefix(path.Clean("/"+c.Param("filepath")), "/")
		if objectName == "" {
			respondError(c, log, apperrors.Validation("Path file wajib diisi"))
			return
		}

		expiresAt, err := strconv.ParseInt(c.Query("expires"), 10, 64)
		signature := c.Query("signature")
		if err != nil || signature == "" || !files.VerifySignedURL(objectName, expiresAt, signature) {
			respondError(c, log, apperrors.Forbidden("Tautan tidak valid atau sudah kedaluwarsa"))
			return
		}

		body, err := files.ReadFile(c.Request.Context(), objectName)
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(c, log, apperrors.NotFound("File tidak ditemukan"))
			return
		}
		if err != nil {
			respondError(c, log, apperrors.Internal("Gagal membaca file", err))
			return
		}
		defer body.Close()

		contentType := "application/octet-stream"
		if strings.HasSuffix(objectName, ".pdf") {
			contentType = "application/pdf"
		}
		c.Header("Content-Type", contentType)
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, body); err != nil {
			log.WarnContext(c.Request.Context(), "file transfer interrupted", "object", objectName, "error", err)
		}
	}
}
