package config

import (
	"flag"
)

// parseFlags overlays Config fields from command-line flags. Flags win
// over environment variables.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("shopauth", flag.ContinueOnError)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP bind address")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "JWT signing secret (min 32 bytes)")
	fs.DurationVar(&cfg.AccessTokenTTL, "access-ttl", cfg.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTokenTTL, "refresh-ttl", cfg.RefreshTokenTTL, "refresh token lifetime")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost (0 = library default)")
	fs.DurationVar(&cfg.RateLimitWindow, "rate-window", cfg.RateLimitWindow, "rate limit window")
	fs.IntVar(&cfg.LoginRateLimit, "login-limit", cfg.LoginRateLimit, "login requests per window")
	fs.IntVar(&cfg.RegisterRateLimit, "register-limit", cfg.RegisterRateLimit, "register requests per window")
	fs.IntVar(&cfg.RefreshRateLimit, "refresh-limit", cfg.RefreshRateLimit, "refresh requests per window")
	fs.IntVar(&cfg.DefaultRateLimit, "default-limit", cfg.DefaultRateLimit, "default requests per window")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	return fs.Parse(args)
}
