package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
)

// UserContextKey is where the auth middleware parks the loaded user on the
// gin context.
const UserContextKey = "user"

// UserLoader resolves a google ID from a verified token into the stored user.
type UserLoader interface {
	UserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
}

// AuthMiddleware verifies the Bearer JWT and loads the user it names. Routes
// behind it can assume CurrentUser never returns nil.
func AuthMiddleware(secret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httputil.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httputil.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			httputil.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}

		user, err := users.UserByGoogleID(c.Request.Context(), sub)
		if err != nil {
			httputil.Unauthorized(c, "unknown user")
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user the auth middleware loaded, or nil on public
// routes.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
