package http

import (
	"context"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hypeeconomy/hype-engine/internal/config"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
)

const (
	userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	sessionTTL  = 7 * 24 * time.Hour
)

type oauthUserStore interface {
	UpsertOAuthUser(ctx context.Context, googleID, displayName, email, accessToken string) error
}

// AuthHandler runs the Google OAuth dance and issues session JWTs. The
// YouTube readonly scope is requested up front so the token factory can read
// the creator's channel later with the same access token.
type AuthHandler struct {
	users       oauthUserStore
	oauth       *oauth2.Config
	jwtSecret   string
	frontendURL string
}

func NewAuthHandler(users oauthUserStore, authConf *config.AuthConfig, frontendURL string) *AuthHandler {
	return &AuthHandler{
		users: users,
		oauth: &oauth2.Config{
			ClientID:     authConf.GoogleClientID,
			ClientSecret: authConf.GoogleClientSecret,
			RedirectURL:  authConf.OAuthRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/youtube.readonly",
			},
			Endpoint: google.Endpoint,
		},
		jwtSecret:   authConf.JWTSecret,
		frontendURL: frontendURL,
	}
}

func (h *AuthHandler) Root() string {
	return "/auth"
}

func (h *AuthHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/google", h.login)
	pub.GET("/google/callback", h.callback)
}

func (h *AuthHandler) login(c *gin.Context) {
	url := h.oauth.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	c.Redirect(gohttp.StatusTemporaryRedirect, url)
}

type googleProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *AuthHandler) callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		httputil.BadRequest(c, "missing authorization code")
		return
	}

	tok, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("oauth code exchange failed")
		httputil.Unauthorized(c, "code exchange failed")
		return
	}

	profile, err := h.fetchProfile(c.Request.Context(), tok)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch google profile")
		httputil.InternalError(c, "failed to fetch profile")
		return
	}

	if err := h.users.UpsertOAuthUser(c.Request.Context(), profile.ID, profile.Name, profile.Email, tok.AccessToken); err != nil {
		log.Error().Err(err).Msg("failed to upsert user")
		httputil.InternalError(c, "failed to persist user")
		return
	}

	session, err := h.issueJWT(profile.ID)
	if err != nil {
		httputil.InternalError(c, "failed to issue session token")
		return
	}

	c.Redirect(gohttp.StatusTemporaryRedirect, fmt.Sprintf("%s/oauth/callback?token=%s", h.frontendURL, session))
}

func (h *AuthHandler) fetchProfile(ctx context.Context, tok *oauth2.Token) (*googleProfile, error) {
	resp, err := h.oauth.Client(ctx, tok).Get(userinfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != gohttp.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var profile googleProfile
	if err := sonic.Unmarshal(body, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("userinfo response missing id")
	}
	return &profile, nil
}

func (h *AuthHandler) issueJWT(googleID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   googleID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
