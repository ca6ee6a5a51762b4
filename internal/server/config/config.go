// Package config handles server configuration: defaults, environment
// overlay, then command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/shopauth/internal/server/token"
)

// Config holds runtime settings for the shopauth server.
type Config struct {
	// Addr is the HTTP bind address.
	Addr string

	// DatabasePath is the SQLite database file (":memory:" for tests).
	DatabasePath string

	// JWTSecret signs tokens (HS256). No default: must be provided and
	// at least 32 bytes.
	JWTSecret string

	// AccessTokenTTL / RefreshTokenTTL are token lifetimes.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// BcryptCost tunes the password hash work factor; 0 uses the
	// library default.
	BcryptCost int

	// Per-endpoint request limits within RateLimitWindow.
	RateLimitWindow   time.Duration
	LoginRateLimit    int
	RegisterRateLimit int
	RefreshRateLimit  int
	DefaultRateLimit  int

	// ClientIPHeaders is the ordered list of headers trusted for the
	// client address when keying the rate limiter. Only meaningful
	// behind a proxy that strips client-supplied values.
	ClientIPHeaders []string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// LoadDefaults populates Config with development defaults.
// The JWT secret deliberately has no default.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabasePath = "shopauth.db"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.BcryptCost = 0
	c.RateLimitWindow = time.Minute
	c.LoginRateLimit = 5
	c.RegisterRateLimit = 3
	c.RefreshRateLimit = 10
	c.DefaultRateLimit = 100
	c.ClientIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}
	c.LogLevel = "info"
}

// Load builds a Config by applying defaults, then overlaying environment
// variables and finally command-line flags. Returns an error on invalid
// settings so misconfiguration fails at startup.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that must fail at startup rather than at
// request time.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < token.MinSecretLen {
		return fmt.Errorf("jwt secret must be at least %d bytes, got %d", token.MinSecretLen, len(c.JWTSecret))
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token ttl must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token ttl must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	for name, limit := range map[string]int{
		"login":    c.LoginRateLimit,
		"register": c.RegisterRateLimit,
		"refresh":  c.RefreshRateLimit,
		"default":  c.DefaultRateLimit,
	} {
		if limit <= 0 {
			return fmt.Errorf("%s rate limit must be positive", name)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
