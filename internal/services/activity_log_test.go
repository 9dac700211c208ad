package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"desa-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mem := store.NewInMemory()
	svc := NewActivityLogService(mem, discardLogger())

	router := gin.New()
	router.Use(svc.LoggingMiddleware())
	router.Use(func(c *gin.Context) { c.Set("user_id", "admin-1") })
	router.POST("/admin/letter-templates", func(c *gin.Context) {
		var body map[string]any
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusCreated, body)
	})
	router.POST("/api/v1/letters/verify", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/letter-templates?dry=1", strings.NewReader(`{"code":"SKTM"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"code":"SKTM"}`, w.Body.String(), "body is still readable by the handler")
	svc.Wait()

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/letters/verify", strings.NewReader(`{"code":"X","nik":"1101010101900001"}`))
	router.ServeHTTP(w, req)

	svc.Wait()

	logs, total, err := svc.GetAllLogs(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	verify, create := logs[0], logs[1]
	assert.Equal(t, "/api/v1/letters/verify", verify.Path)
	assert.Empty(t, verify.RequestBody, "verification bodies carry a NIK")

	assert.Equal(t, "/admin/letter-templates", create.Path)
	assert.Equal(t, http.MethodPost, create.Method)
	assert.Equal(t, http.StatusCreated, create.StatusCode)
	assert.Equal(t, `{"code":"SKTM"}`, create.RequestBody)
	assert.Equal(t, `{"dry":"1"}`, create.QueryParams)
	assert.Equal(t, "admin-1", create.UserID)
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "abc", sanitizeUTF8("abc"))
	assert.Equal(t, "a�b", sanitizeUTF8("a\xffb"))
}
