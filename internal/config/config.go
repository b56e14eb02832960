// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config holding only non-secret defaults.
//   - Database credentials have no defaults; Load fails when they are absent.
//   - All future functions must accept context.Context as the first parameter.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":5057".
	Addr string `koanf:"addr"`

	// Database connection. User and password must come from the environment
	// or the config file.
	DBHost     string `koanf:"db_host"`
	DBPort     int    `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`

	// Pool sizing. Requests beyond DBMaxOpenConns queue for a connection.
	DBMaxOpenConns    int           `koanf:"db_max_open_conns"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	DBConnectTimeout  time.Duration `koanf:"db_connect_timeout"`

	// RequestTimeout bounds every API request, including its SQL.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CORSAllowedOrigins defaults to any origin.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Per-IP rate limiting on /api.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// PoolStatsInterval controls how often pool gauges are refreshed.
	PoolStatsInterval time.Duration `koanf:"pool_stats_interval"`
}

// New creates a Config with defaults for everything except credentials.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":5057",
		DBHost:             "127.0.0.1",
		DBPort:             3306,
		DBName:             "cadet_tracker",
		DBMaxOpenConns:     10,
		DBMaxIdleConns:     5,
		DBConnMaxLifetime:  5 * time.Minute,
		DBConnectTimeout:   8 * time.Second,
		RequestTimeout:     15 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  300,
		RateLimitWindow:    time.Minute,
		PoolStatsInterval:  10 * time.Second,
	}
}

// DBAddr returns host:port for the database.
func (c *Config) DBAddr() string {
	return net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBHost == "":
		return fmt.Errorf("%w: db_host must not be empty", ErrInvalidConfig)
	case c.DBPort <= 0 || c.DBPort > 65535:
		return fmt.Errorf("%w: db_port out of range", ErrInvalidConfig)
	case c.DBUser == "":
		return fmt.Errorf("%w: db_user is required", ErrMissingCredentials)
	case c.DBPassword == "":
		return fmt.Errorf("%w: db_password is required", ErrMissingCredentials)
	case c.DBName == "":
		return fmt.Errorf("%w: db_name must not be empty", ErrInvalidConfig)
	case c.DBMaxOpenConns <= 0:
		return fmt.Errorf("%w: db_max_open_conns must be positive", ErrInvalidConfig)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	case !c.RateLimitDisabled && (c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0):
		return fmt.Errorf("%w: rate limit requires positive requests and window", ErrInvalidConfig)
	}
	return nil
}
