// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// --------------------------------------------------------------------------
// Database backends
// --------------------------------------------------------------------------

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	DBPoolMinConns int           `env:"DB_POOL_MIN_CONNS" envDefault:"2"`
	DBPoolMaxConns int           `env:"DB_POOL_MAX_CONNS" envDefault:"10"`
	DBPoolMaxLife  time.Duration `env:"DB_POOL_MAX_LIFE" envDefault:"30m"`

	// API server
	APIHost     string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort     int    `env:"API_PORT" envDefault:"8000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	Debug       bool   `env:"DEBUG" envDefault:"false"`

	// CORS
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	// Rate limiting (inbound)
	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	// football-data.org
	FootballDataBaseURL           string        `env:"FOOTBALL_DATA_BASE_URL" envDefault:"https://api.football-data.org/v4"`
	FootballDataAPIToken          string        `env:"FOOTBALL_DATA_API_TOKEN"`
	FootballDataRequestsPerMinute int           `env:"FOOTBALL_DATA_REQUESTS_PER_MINUTE" envDefault:"10"`
	FootballDataTimeout           time.Duration `env:"FOOTBALL_DATA_TIMEOUT" envDefault:"30s"`

	// Import pipeline
	ImportRequestDelay time.Duration `env:"IMPORT_REQUEST_DELAY" envDefault:"6s"`
	ImportTeamLimit    int           `env:"IMPORT_TEAM_LIMIT" envDefault:"5"`
	ImportMaxRetries   int           `env:"IMPORT_MAX_RETRIES" envDefault:"3"`
	ImportRetryBase    time.Duration `env:"IMPORT_RETRY_BASE" envDefault:"1s"`

	// Cache
	CacheEnabled bool `env:"CACHE_ENABLED" envDefault:"true"`

	// Scheduled refresh; disabled when RefreshLeagues is empty.
	RefreshLeagues  []string      `env:"REFRESH_LEAGUES" envSeparator:","`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"24h"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given map instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.RefreshLeagues = normalizeCodes(cfg.RefreshLeagues)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Backend() == "" {
		return fmt.Errorf("DATABASE_URL: unsupported scheme in %q", redact(c.DatabaseURL))
	}
	if c.ImportTeamLimit < 0 {
		return errors.New("IMPORT_TEAM_LIMIT must not be negative")
	}
	if c.ImportMaxRetries < 0 {
		return errors.New("IMPORT_MAX_RETRIES must not be negative")
	}
	if c.ImportRequestDelay < 0 {
		return errors.New("IMPORT_REQUEST_DELAY must not be negative")
	}
	if len(c.RefreshLeagues) > 0 && c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL must be positive when REFRESH_LEAGUES is set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Backend reports which store implementation DatabaseURL selects, or "" if
// the scheme is not recognised.
func (c *Config) Backend() string {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return BackendPostgres
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"), strings.HasPrefix(c.DatabaseURL, "file:"):
		return BackendSQLite
	}
	return ""
}

// SQLitePath returns the database path for the sqlite backend.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func normalizeCodes(codes []string) []string {
	out := codes[:0]
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// redact hides credentials in a connection string for error messages.
func redact(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return u
	}
	return u[:scheme+3] + "***" + u[at:]
}
