package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextClaimsKey   = "jwt_claims"
	ContextUserIDKey   = "user_id"
	ContextUserRoleKey = "user_role"
)

// Claims are issued by the portal's login service
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for user. The letter service never logs anyone in;
// this exists for tooling and tests.
func (v *TokenVerifier) Issue(user models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}
	if len(v.secret) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}
	return claims, nil
}

func abort(c *gin.Context, status int, err *apperrors.Error) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   err.Message,
		"code":    err.Kind,
	})
}

// RequireAuth accepts requests carrying a valid bearer token
func RequireAuth(v *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, apperrors.Unauthorized("Silakan login terlebih dahulu"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, apperrors.Unauthorized("Header Authorization tidak valid"))
			return
		}

		claims, err := v.Verify(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, apperrors.Unauthorized("Token tidak valid atau kedaluwarsa"))
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			abort(c, http.StatusUnauthorized, apperrors.Unauthorized("Silakan login terlebih dahulu"))
			return
		}
		for _, role := range allowed {
			if strings.EqualFold(claims.Role, role) {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, apperrors.Forbidden("Anda tidak memiliki akses"))
	}
}

// RequireAdmin admits village administrators
func RequireAdmin(v *TokenVerifier) []gin.HandlerFunc {
	return []gin.HandlerFunc{RequireAuth(v), RequireRole(models.RoleAdmin, models.RoleSuperAdmin)}
}

func GetClaims(c *gin.Context) (*Claims, bool) {
	value, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
