package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sydlexius/tastegraph/internal/api/middleware"
	"github.com/sydlexius/tastegraph/internal/auth"
	"github.com/sydlexius/tastegraph/internal/graph"
	"github.com/sydlexius/tastegraph/internal/logging"
	"github.com/sydlexius/tastegraph/internal/spotify"
)

// stateMaxAge bounds how long a login may take before the callback.
const stateMaxAge = 10 * time.Minute

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		r.log(req).Error("generating oauth state", slog.String("error", err.Error()))
		r.writeFailure(w, http.StatusInternalServerError, "Failed to initiate login", err)
		return
	}

	http.SetCookie(w, r.stateCookie(state, int(stateMaxAge.Seconds())))
	http.Redirect(w, req, r.auth.AuthCodeURL(state), http.StatusFound)
}

func (r *Router) handleCallback(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing authorization code"})
		return
	}

	var stored string
	if c, err := req.Cookie(auth.StateCookieName); err == nil {
		stored = c.Value
	}
	if !auth.ValidState(q.Get("state"), stored) {
		r.log(req).Warn("oauth state mismatch")
		http.SetCookie(w, r.stateCookie("", -1))
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid state parameter"})
		return
	}
	http.SetCookie(w, r.stateCookie("", -1))

	tok, err := r.auth.Exchange(req.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrNoAccessToken) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "No access token received"})
			return
		}
		r.log(req).Error("exchanging authorization code", slog.String("error", err.Error()))
		r.writeFailure(w, http.StatusInternalServerError, "Authentication failed", err)
		return
	}

	fragment := url.Values{
		"access_token":  {tok.AccessToken},
		"refresh_token": {tok.RefreshToken},
	}
	http.Redirect(w, req, r.frontendURI+"/#"+fragment.Encode(), http.StatusFound)
}

func (r *Router) handleTopArtistsGraph(w http.ResponseWriter, req *http.Request) {
	g, ok := r.buildGraph(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (r *Router) handleTopArtistsGenres(w http.ResponseWriter, req *http.Request) {
	g, ok := r.buildGraph(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": graph.GenreCounts(g.Nodes)})
}

// buildGraph fetches the caller's top artists and runs the graph pipeline
// against the current genre table. On failure it writes the response and
// returns false.
func (r *Router) buildGraph(w http.ResponseWriter, req *http.Request) (graph.Graph, bool) {
	logger := r.log(req)

	artists, err := r.spotify.TopArtists(req.Context(), middleware.AccessToken(req.Context()), r.topArtistsLimit)
	if err != nil {
		if errors.Is(err, spotify.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired access token"})
			return graph.Graph{}, false
		}
		logger.Error("fetching top artists", slog.String("error", err.Error()))
		r.writeFailure(w, http.StatusInternalServerError, "Failed to fetch top artists graph", err)
		return graph.Graph{}, false
	}
	if len(artists) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No artists found"})
		return graph.Graph{}, false
	}

	if err := graph.Validate(artists); err != nil {
		var invalid *graph.InvalidArtistError
		if errors.As(err, &invalid) {
			logger.Warn("rejecting upstream artists",
				slog.Int("index", invalid.Index),
				slog.String("reason", invalid.Reason))
		}
		r.writeFailure(w, http.StatusBadGateway, "Invalid artist data from Spotify", err)
		return graph.Graph{}, false
	}

	start := time.Now()
	g := graph.Build(artists, r.genres.Current(), r.graphOptions)
	logger.Debug("graph built",
		slog.Int("artists", len(artists)),
		slog.Int("nodes", len(g.Nodes)),
		slog.Int("links", len(g.Links)),
		slog.Duration("duration", time.Since(start)))

	return g, true
}

func (r *Router) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.StateCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.production,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// writeFailure writes an error body. The underlying error text is only
// exposed outside production.
func (r *Router) writeFailure(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if !r.production && err != nil {
		body["message"] = err.Error()
	}
	writeJSON(w, status, body)
}

func (r *Router) log(req *http.Request) *slog.Logger {
	return logging.FromContext(req.Context(), r.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
