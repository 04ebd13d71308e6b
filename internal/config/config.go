// Package config loads server configuration from environment variables.
//
// Configuration comes from the environment (12-factor style); in local
// development a .env file is loaded by main before parsing. Every knob has
// an env tag, and validation happens once at startup — the rest of the
// program receives an already-checked Config and never touches os.Getenv.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"8080"`

	// ServerURL is the public base URL of this server, used in the OAuth
	// discovery documents. No trailing slash.
	ServerURL string `env:"SERVER_URL" envDefault:"http://localhost:8080"`

	// DBPath is the SQLite database file. ":memory:" works for throwaway
	// local runs.
	DBPath string `env:"DB_PATH" envDefault:"gradient.db"`

	// JWTSecret signs first-party session tokens. Must be a long random
	// string: JWT_SECRET=$(openssl rand -hex 32)
	JWTSecret string `env:"JWT_SECRET"`

	// Identity issuer settings. AuthenticateURL is the endpoint that
	// exchanges a provider credential for a verified identity; ProjectID
	// and ProjectSecret authenticate this server to the issuer.
	IssuerURL        string `env:"ISSUER_URL"`
	AuthenticateURL  string `env:"ISSUER_AUTHENTICATE_URL"`
	AuthorizationURL string `env:"ISSUER_AUTHORIZATION_URL"`
	TokenURL         string `env:"ISSUER_TOKEN_URL"`
	ProjectID        string `env:"ISSUER_PROJECT_ID"`
	ProjectSecret    string `env:"ISSUER_PROJECT_SECRET"`

	// StaticDir holds the login page and widget assets.
	StaticDir string `env:"STATIC_DIR" envDefault:"static"`

	// Rate limit applied per client IP, requests per second with the given
	// burst.
	RateLimit      float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Derive the issuer endpoints not set explicitly. The authenticate
	// endpoint is the issuer's credential-exchange API; authorization and
	// token endpoints feed the discovery documents.
	base := strings.TrimRight(cfg.IssuerURL, "/")
	if cfg.AuthenticateURL == "" {
		cfg.AuthenticateURL = base + "/oauth/authenticate"
	}
	if cfg.AuthorizationURL == "" {
		cfg.AuthorizationURL = base + "/oauth/authorize"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = base + "/oauth/token"
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	return &cfg, nil
}

// validate checks the settings that have no sensible default. Collecting
// all failures into one error means a broken deployment reports every
// missing variable at once instead of one per restart.
func (c *Config) validate() error {
	var problems []error

	if c.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET is required"))
	}
	if c.IssuerURL == "" {
		problems = append(problems, errors.New("ISSUER_URL is required"))
	}
	if c.ProjectID == "" {
		problems = append(problems, errors.New("ISSUER_PROJECT_ID is required"))
	}
	if c.ProjectSecret == "" {
		problems = append(problems, errors.New("ISSUER_PROJECT_SECRET is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	return errors.Join(problems...)
}
