// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
loaded first when present (joho/godotenv); real environment variables always win.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Configuration is read once at process start and passed to constructors.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Rate limiter backends accepted by RATE_LIMIT_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendFile     = "file"
)

// Config holds all runtime configuration for the Staffdesk API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`
	BaseURL     string `env:"BASE_URL"     envDefault:"http://localhost:8080"`

	// Timezone is the IANA zone that decides the attendance work day.
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	// Relational Database (PostgreSQL). DATABASE_URL wins over the DB_* parts.
	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"     envDefault:"localhost"`
	DBPort      int    `env:"DB_PORT"     envDefault:"5432"`
	DBUser      string `env:"DB_USER"     envDefault:"staffdesk"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"     envDefault:"staffdesk"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,notEmpty"`

	// Sessions
	SessionSecret      string        `env:"SESSION_SECRET,notEmpty"`
	CookieSecure       bool          `env:"COOKIE_SECURE"         envDefault:"false"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT"  envDefault:"1h"`
	SessionRememberTTL time.Duration `env:"SESSION_REMEMBER_TTL"  envDefault:"720h"`

	// Rate limiting
	RateLimitBackend string        `env:"RATE_LIMIT_BACKEND" envDefault:"postgres"`
	RateLimitDir     string        `env:"RATE_LIMIT_DIR"     envDefault:"./data/ratelimit"`
	LoginRateLimit   int           `env:"LOGIN_RATE_LIMIT"   envDefault:"5"`
	LoginRateWindow  time.Duration `env:"LOGIN_RATE_WINDOW"  envDefault:"15m"`
	APIRateLimit     int           `env:"API_RATE_LIMIT"     envDefault:"100"`
	APIRateWindow    time.Duration `env:"API_RATE_WINDOW"    envDefault:"60s"`
	BurstGuard       bool          `env:"BURST_GUARD_ENABLED" envDefault:"true"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load reads an optional .env file, then parses environment variables into a [Config].
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("config: SESSION_SECRET must be at least 32 bytes")
	}
	switch c.RateLimitBackend {
	case BackendPostgres, BackendRedis, BackendFile:
	default:
		return fmt.Errorf("config: unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	if c.LoginRateLimit <= 0 || c.APIRateLimit <= 0 {
		return errors.New("config: rate limits must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the loaded TIMEZONE. Load has already validated it.
func (c *Config) Location() *time.Location {
	location, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}

// PostgresURL returns DATABASE_URL, or assembles one from the DB_* variables.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	query := dsn.Query()
	query.Set("sslmode", "disable")
	if c.IsProduction() {
		query.Set("sslmode", "require")
	}
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

// Origins returns the CORS allow-list. BASE_URL is always included.
func (c *Config) Origins() []string {
	origins := []string{strings.TrimRight(c.BaseURL, "/")}
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, strings.TrimRight(origin, "/"))
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
