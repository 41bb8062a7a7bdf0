// Package auth implements the Spotify authorization-code flow and the
// state value that protects its callback from CSRF.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// StateCookieName holds the state value between /login and /callback.
const StateCookieName = "spotify_auth_state"

// stateBytes is the amount of randomness in a state value.
const stateBytes = 32

// Spotify account service endpoints.
const (
	DefaultAuthURL  = "https://accounts.spotify.com/authorize"
	DefaultTokenURL = "https://accounts.spotify.com/api/token" //nolint:gosec // G101: URL, not a credential
)

// DefaultScopes are the scopes requested at login.
var DefaultScopes = []string{"user-top-read"}

// ErrNoAccessToken is returned when the token endpoint answers without an access token.
var ErrNoAccessToken = errors.New("no access token received")

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// Service wraps an oauth2.Config for Spotify.
type Service struct {
	oauth *oauth2.Config
}

// NewService creates a Service. Empty endpoint URLs and scopes fall back
// to the Spotify defaults.
func NewService(cfg Config) *Service {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
				// Spotify expects client credentials as HTTP Basic auth.
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// AuthCodeURL returns the Spotify authorize URL for the given state.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNoAccessToken
	}
	return tok, nil
}

// NewState returns a URL-safe random state value.
func NewState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidState reports whether the state echoed by the callback matches the
// one stored in the cookie. The comparison runs in constant time.
func ValidState(received, stored string) bool {
	if received == "" || stored == "" {
		return false
	}
	if len(received) != len(stored) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(stored)) == 1
}
