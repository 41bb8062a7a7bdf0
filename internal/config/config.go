package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sydlexius/tastegraph/internal/graph"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Spotify SpotifyConfig `yaml:"spotify"`
	Graph   GraphConfig   `yaml:"graph"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
	Env      string `yaml:"env"`
}

// SpotifyConfig holds the OAuth client registration and API settings.
type SpotifyConfig struct {
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	RedirectURI     string `yaml:"redirect_uri"`
	FrontendURI     string `yaml:"frontend_uri"`
	TopArtistsLimit int    `yaml:"top_artists_limit"`
}

// GraphConfig holds graph construction settings.
type GraphConfig struct {
	MaxLinksPerNode int    `yaml:"max_links_per_node"`
	FrequencyPolicy string `yaml:"frequency_policy"`
	GenreMap        string `yaml:"genre_map"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8888,
			BasePath: "/",
			Env:      "development",
		},
		Spotify: SpotifyConfig{
			RedirectURI:     "http://127.0.0.1:8888/callback",
			FrontendURI:     "http://127.0.0.1:3000",
			TopArtistsLimit: 50,
		},
		Graph: GraphConfig{
			MaxLinksPerNode: graph.DefaultMaxLinksPerNode,
			FrequencyPolicy: string(graph.PolicyCanonical),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists), then from a dotenv
// file (if it exists), and overrides with environment variables.
// Environment variables take precedence; the dotenv file never replaces a
// variable that is already set.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Policy returns the parsed frequency policy. validate guarantees it parses.
func (c *Config) Policy() graph.FrequencyPolicy {
	p, _ := graph.ParsePolicy(c.Graph.FrequencyPolicy)
	return p
}

// RequireCredentials checks the settings needed to talk to Spotify.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	// PORT is honored for hosting platforms; TG_PORT wins when both are set.
	for _, key := range []string{"PORT", "TG_PORT"} {
		if err := envInt(key, &c.Server.Port); err != nil {
			return err
		}
	}
	if v := os.Getenv("TG_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("NODE_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("TG_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("REDIRECT_URI"); v != "" {
		c.Spotify.RedirectURI = v
	}
	if v := os.Getenv("FRONTEND_URI"); v != "" {
		c.Spotify.FrontendURI = v
	}
	if err := envInt("TG_TOP_ARTISTS_LIMIT", &c.Spotify.TopArtistsLimit); err != nil {
		return err
	}
	if err := envInt("TG_MAX_LINKS_PER_NODE", &c.Graph.MaxLinksPerNode); err != nil {
		return err
	}
	if v := os.Getenv("TG_FREQUENCY_POLICY"); v != "" {
		c.Graph.FrequencyPolicy = v
	}
	if v := os.Getenv("TG_GENRE_MAP"); v != "" {
		c.Graph.GenreMap = v
	}
	if v := os.Getenv("TG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TG_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("TG_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Spotify.TopArtistsLimit < 1 || c.Spotify.TopArtistsLimit > 50 {
		return fmt.Errorf("top artists limit must be between 1 and 50, got %d", c.Spotify.TopArtistsLimit)
	}
	if c.Graph.MaxLinksPerNode < 0 {
		return fmt.Errorf("max links per node must not be negative, got %d", c.Graph.MaxLinksPerNode)
	}
	if _, err := graph.ParsePolicy(c.Graph.FrequencyPolicy); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	c.Spotify.FrontendURI = strings.TrimRight(c.Spotify.FrontendURI, "/")
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
