package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/domain"
)

const testSecret = "test-secret"

type fakeLoader struct {
	users map[string]*domain.User
}

func (f *fakeLoader) UserByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	if u, ok := f.users[googleID]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

func signToken(t *testing.T, sub string, method jwt.SigningMethod, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	raw, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func newAuthRouter(loader UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret, loader), func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c))
	})
	return r
}

func TestAuthMiddlewareLoadsUser(t *testing.T) {
	loader := &fakeLoader{users: map[string]*domain.User{
		"g1": {GoogleID: "g1", DisplayName: "Creator"},
	}}
	r := newAuthRouter(loader)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "g1", jwt.SigningMethodHS256, time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Creator")
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	r := newAuthRouter(&fakeLoader{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	loader := &fakeLoader{users: map[string]*domain.User{"g1": {GoogleID: "g1"}}}
	r := newAuthRouter(loader)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "g1", jwt.SigningMethodHS256, -time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsUnknownUser(t *testing.T) {
	r := newAuthRouter(&fakeLoader{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "ghost", jwt.SigningMethodHS256, time.Hour))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
