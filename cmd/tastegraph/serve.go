package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sydlexius/tastegraph/internal/api"
	"github.com/sydlexius/tastegraph/internal/api/middleware"
	"github.com/sydlexius/tastegraph/internal/auth"
	"github.com/sydlexius/tastegraph/internal/config"
	"github.com/sydlexius/tastegraph/internal/genre"
	"github.com/sydlexius/tastegraph/internal/graph"
	"github.com/sydlexius/tastegraph/internal/logging"
	"github.com/sydlexius/tastegraph/internal/spotify"
	"github.com/sydlexius/tastegraph/internal/version"
)

func newServeCmd() *cobra.Command {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Configuration is read from the YAML file, then the
dotenv file, then the environment. SIGHUP reloads the log settings and the
genre map without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, envFile)
		},
	}

	defaultConfig := os.Getenv("TG_CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	cmd.Flags().StringVar(&configPath, "config", defaultConfig, "path to the YAML config file (missing file is ignored)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "path to a dotenv file (missing file is ignored)")
	return cmd
}

func runServe(parent context.Context, configPath, envFile string) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	logManager, logger := logging.NewManager(logConfig(cfg))
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	genres, err := genre.NewStore(cfg.Graph.GenreMap, logger)
	if err != nil {
		return fmt.Errorf("loading genre map: %w", err)
	}
	go func() {
		if err := genres.Watch(ctx); err != nil {
			logger.Warn("genre map watcher stopped", "error", err)
		}
	}()

	go reloadOnHangup(ctx, configPath, envFile, logManager, genres, logger)

	// Spotify allows bursts but throttles sustained traffic per app.
	spotifyClient := spotify.New(rate.NewLimiter(rate.Every(100*time.Millisecond), 10), logger)

	router := api.NewRouter(api.RouterDeps{
		Auth: auth.NewService(auth.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RedirectURL:  cfg.Spotify.RedirectURI,
		}),
		Spotify:         spotifyClient,
		Genres:          genres,
		GraphOptions:    graph.Options{MaxLinksPerNode: cfg.Graph.MaxLinksPerNode, Policy: cfg.Policy()},
		TopArtistsLimit: cfg.Spotify.TopArtistsLimit,
		FrontendURI:     cfg.Spotify.FrontendURI,
		BasePath:        cfg.Server.BasePath,
		Production:      cfg.IsProduction(),
		RateLimiter:     middleware.NewRateLimiter(ctx, middleware.DefaultRateInterval, middleware.DefaultRateBurst),
		Logger:          logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("base_path", cfg.Server.BasePath),
			slog.String("env", cfg.Server.Env),
			slog.String("frontend", cfg.Spotify.FrontendURI),
			slog.String("version", version.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reloadOnHangup re-reads configuration on SIGHUP and applies the parts
// that can change at runtime: log settings and the genre map.
func reloadOnHangup(ctx context.Context, configPath, envFile string, logManager *logging.Manager, genres *genre.Store, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(configPath, envFile)
			if err != nil {
				logger.Warn("config reload failed, keeping current settings", "error", err)
				continue
			}
			logManager.Reconfigure(logConfig(cfg))
			if err := genres.Reload(); err != nil {
				logger.Warn("genre map reload failed, keeping previous table", "error", err)
			}
			logger.Info("configuration reloaded", slog.String("logging", cfg.Logging.Level+"/"+cfg.Logging.Format))
		}
	}
}

func logConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	lc.Format = cfg.Logging.Format
	lc.FilePath = cfg.Logging.File
	return lc
}
