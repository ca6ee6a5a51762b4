package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays Config fields from SHOPAUTH_* environment variables.
// Durations use Go duration syntax ("15m", "168h"); ClientIPHeaders is a
// comma-separated list.
func parseEnv(cfg *Config) {
	setString(&cfg.Addr, "SHOPAUTH_ADDR")
	setString(&cfg.DatabasePath, "SHOPAUTH_DATABASE_PATH")
	setString(&cfg.JWTSecret, "SHOPAUTH_JWT_SECRET")
	setDuration(&cfg.AccessTokenTTL, "SHOPAUTH_ACCESS_TOKEN_TTL")
	setDuration(&cfg.RefreshTokenTTL, "SHOPAUTH_REFRESH_TOKEN_TTL")
	setInt(&cfg.BcryptCost, "SHOPAUTH_BCRYPT_COST")
	setDuration(&cfg.RateLimitWindow, "SHOPAUTH_RATE_LIMIT_WINDOW")
	setInt(&cfg.LoginRateLimit, "SHOPAUTH_LOGIN_RATE_LIMIT")
	setInt(&cfg.RegisterRateLimit, "SHOPAUTH_REGISTER_RATE_LIMIT")
	setInt(&cfg.RefreshRateLimit, "SHOPAUTH_REFRESH_RATE_LIMIT")
	setInt(&cfg.DefaultRateLimit, "SHOPAUTH_DEFAULT_RATE_LIMIT")
	setString(&cfg.LogLevel, "SHOPAUTH_LOG_LEVEL")

	if value, ok := os.LookupEnv("SHOPAUTH_CLIENT_IP_HEADERS"); ok {
		var headers []string
		for _, h := range strings.Split(value, ",") {
			if h = strings.TrimSpace(h); h != "" {
				headers = append(headers, h)
			}
		}
		cfg.ClientIPHeaders = headers
	}
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			*dst = parsed
		}
	}
}
