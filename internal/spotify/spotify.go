// Package spotify fetches a user's top artists from the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sydlexius/tastegraph/internal/graph"
)

// DefaultAPIURL is the Spotify Web API base URL.
const DefaultAPIURL = "https://api.spotify.com/v1"

// MaxTopArtists is the largest page Spotify returns for top artists.
const MaxTopArtists = 50

// ErrUnauthorized is returned when Spotify rejects the access token.
var ErrUnauthorized = errors.New("spotify: invalid or expired access token")

// UpstreamError describes any other failed Spotify call. Status is zero
// when no HTTP response was received.
type UpstreamError struct {
	Status  int
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("spotify: network error: %v", e.Cause)
	}
	return fmt.Sprintf("spotify: status %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

// Client calls the Spotify Web API on behalf of a user. It holds no
// per-user state; the access token is passed on every call.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	baseURL string
}

// New creates a Client against the public Spotify API.
func New(limiter *rate.Limiter, logger *slog.Logger) *Client {
	return NewWithBaseURL(limiter, logger, DefaultAPIURL)
}

// NewWithBaseURL creates a Client with a custom base URL (for testing).
// A nil limiter disables client-side throttling.
func NewWithBaseURL(limiter *rate.Limiter, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("upstream", "spotify")),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TopArtists returns the user's top artists in Spotify's ranking order.
// The limit is clamped to 1..MaxTopArtists.
func (c *Client) TopArtists(ctx context.Context, accessToken string, limit int) ([]graph.Artist, error) {
	limit = max(1, min(limit, MaxTopArtists))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &UpstreamError{Cause: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	params := url.Values{"limit": {strconv.Itoa(limit)}}
	reqURL := c.baseURL + "/me/top/artists?" + params.Encode()

	body, err := c.doRequest(ctx, reqURL, accessToken)
	if err != nil {
		return nil, err
	}

	var resp topArtistsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing top artists response: %w", err)
	}

	artists := make([]graph.Artist, 0, len(resp.Items))
	for _, item := range resp.Items {
		artists = append(artists, item.toArtist())
	}

	c.logger.Debug("top artists fetched",
		slog.Int("limit", limit),
		slog.Int("results", len(artists)))

	return artists, nil
}

// doRequest executes an authenticated GET and returns the response body.
func (c *Client) doRequest(ctx context.Context, reqURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req) //nolint:gosec // URL built from configured base URL
	if err != nil {
		return nil, &UpstreamError{Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1*1024*1024))
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: "reading response body", Cause: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, &UpstreamError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
}

// errorMessage extracts Spotify's error.message, falling back to a generic text.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return "failed to fetch top artists"
}
