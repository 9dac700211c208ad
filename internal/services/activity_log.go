package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"desa-portal/internal/models"
	"desa-portal/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxLoggedBody = 10000

// bodyRedactedPaths never have their body logged; the verify body carries a NIK
var bodyRedactedPaths = []string{
	"/api/v1/letters/verify",
	"/api/v1/letters/requests",
}

// sanitizeUTF8 ensures the string is valid UTF-8, replacing invalid bytes
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

type ActivityLogService struct {
	store  store.ActivityLogStore
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewActivityLogService(s store.ActivityLogStore, logger *slog.Logger) *ActivityLogService {
	return &ActivityLogService{store: s, logger: logger}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, ok := c.Get("request_body"); ok {
		requestBody, _ = body.(string)
	}

	activityLog := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  sanitizeUTF8(requestBody),
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		UserID:       c.GetString("user_id"),
		CreatedAt:    time.Now(),
	}

	// Saved off the request path so a slow database does not delay responses
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.CreateActivityLog(ctx, activityLog); err != nil {
			s.logger.Error("failed to save activity log", "path", activityLog.Path, "error", err)
		}
	}()
}

// Wait blocks until pending log writes finish
func (s *ActivityLogService) Wait() {
	s.wg.Wait()
}

func (s *ActivityLogService) GetAllLogs(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	logs, total, err := s.store.ListActivityLogs(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}
	return logs, total, nil
}

func redactBody(path string) bool {
	for _, p := range bodyRedactedPaths {
		if path == p {
			return true
		}
	}
	return false
}

// LoggingMiddleware records every handled request
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if c.Request.Method != "GET" && c.Request.Body != nil && !redactBody(c.Request.URL.Path) {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > maxLoggedBody {
					c.Set("request_body", fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
				} else if len(bodyBytes) > 0 {
					c.Set("request_body", string(bodyBytes))
				}
			}
		}

		c.Next()

		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
