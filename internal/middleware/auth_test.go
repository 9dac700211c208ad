package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"desa-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(v *TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/ping", append(RequireAdmin(v), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserIDKey))
	})...)
	return r
}

func call(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAdmin(t *testing.T) {
	v := NewTokenVerifier("rahasia", "desa-portal")
	r := newRouter(v)

	admin, err := v.Issue(models.User{ID: "u-1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	super, err := v.Issue(models.User{ID: "u-2", Role: models.RoleSuperAdmin}, time.Hour)
	require.NoError(t, err)
	citizen, err := v.Issue(models.User{ID: "u-3", Role: "WARGA"}, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue(models.User{ID: "u-1", Role: models.RoleAdmin}, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewTokenVerifier("lain", "desa-portal").Issue(models.User{ID: "u-1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"admin", "Bearer " + admin, http.StatusOK, "u-1"},
		{"super admin, lower-case scheme", "bearer " + super, http.StatusOK, "u-2"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + admin, http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized, ""},
		{"not an admin", "Bearer " + citizen, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.auth)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	v := NewTokenVerifier("rahasia", "")
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "u-1", Role: models.RoleAdmin})
	signed, err := token.SignedString([]byte("rahasia"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyWithoutSecretFails(t *testing.T) {
	v := NewTokenVerifier("", "")
	_, err := v.Verify("abc.def.ghi")
	assert.Error(t, err)
}
