package config

import (
	"errors"
	"os"
	"slices"
)

type AuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	JWTSecret          string
}

func (a *AuthConfig) Key() string {
	return AUTH_CONFIG_KEY
}

func (a *AuthConfig) Load() error {
	a.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	a.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	a.OAuthRedirectURL = getEnvOrDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback")
	a.JWTSecret = os.Getenv("JWT_SECRET")
	return a.Validate()
}

func (a *AuthConfig) Validate() error {
	if slices.Contains([]string{a.GoogleClientID, a.GoogleClientSecret, a.JWTSecret}, "") {
		return errors.New("invalid auth config")
	}
	return nil
}
