package api

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sydlexius/tastegraph/internal/api/middleware"
	"github.com/sydlexius/tastegraph/internal/genre"
	"github.com/sydlexius/tastegraph/internal/graph"
)

// ArtistSource fetches a user's top artists.
type ArtistSource interface {
	TopArtists(ctx context.Context, accessToken string, limit int) ([]graph.Artist, error)
}

// Authorizer runs the OAuth authorization-code flow.
type Authorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// GenreSource yields the genre table to use for one request.
type GenreSource interface {
	Current() *genre.Normalizer
}

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	Auth            Authorizer
	Spotify         ArtistSource
	Genres          GenreSource
	GraphOptions    graph.Options
	TopArtistsLimit int
	FrontendURI     string
	BasePath        string
	Production      bool
	// RateLimiter guards the OAuth and graph routes. Nil disables limiting.
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// Router sets up all HTTP routes for the application.
type Router struct {
	auth            Authorizer
	spotify         ArtistSource
	genres          GenreSource
	graphOptions    graph.Options
	topArtistsLimit int
	frontendURI     string
	basePath        string
	production      bool
	rateLimiter     *middleware.RateLimiter
	logger          *slog.Logger
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		auth:            deps.Auth,
		spotify:         deps.Spotify,
		genres:          deps.Genres,
		graphOptions:    deps.GraphOptions,
		topArtistsLimit: deps.TopArtistsLimit,
		frontendURI:     deps.FrontendURI,
		basePath:        deps.BasePath,
		production:      deps.Production,
		rateLimiter:     deps.RateLimiter,
		logger:          deps.Logger,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/health", r.handleHealth)

	// OAuth flow
	mux.Handle("GET "+bp+"/login", r.limited(http.HandlerFunc(r.handleLogin)))
	mux.Handle("GET "+bp+"/callback", r.limited(http.HandlerFunc(r.handleCallback)))

	// Graph routes (bearer token required)
	mux.Handle("GET "+bp+"/top-artists-graph", r.limited(middleware.BearerToken(http.HandlerFunc(r.handleTopArtistsGraph))))
	mux.Handle("GET "+bp+"/top-artists-genres", r.limited(middleware.BearerToken(http.HandlerFunc(r.handleTopArtistsGenres))))

	mux.HandleFunc("/", r.handleNotFound)

	var h http.Handler = mux
	h = middleware.CORS(r.frontendURI)(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.Recover(r.logger, !r.production)(h)
	return middleware.Logging(r.logger)(h)
}

func (r *Router) limited(h http.Handler) http.Handler {
	if r.rateLimiter == nil {
		return h
	}
	return r.rateLimiter.Middleware(h)
}
