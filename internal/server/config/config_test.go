package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "config-test-secret-key-32-bytes!!!"

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "shopauth.db", cfg.DatabasePath)
	assert.Empty(t, cfg.JWTSecret) // no default on purpose
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.Equal(t, 3, cfg.RegisterRateLimit)
	assert.Equal(t, 10, cfg.RefreshRateLimit)
	assert.Equal(t, 100, cfg.DefaultRateLimit)
	assert.Equal(t, []string{"X-Forwarded-For", "X-Real-IP"}, cfg.ClientIPHeaders)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad(t *testing.T) {
	cfg, err := Load([]string{"-jwt-secret", testSecret})
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.JWTSecret)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt secret")
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SHOPAUTH_JWT_SECRET", testSecret)
	t.Setenv("SHOPAUTH_ADDR", ":9090")
	t.Setenv("SHOPAUTH_ACCESS_TOKEN_TTL", "30m")
	t.Setenv("SHOPAUTH_LOGIN_RATE_LIMIT", "7")
	t.Setenv("SHOPAUTH_CLIENT_IP_HEADERS", "X-Real-IP, CF-Connecting-IP")

	cfg, err := Load([]string{"-addr", ":7070"})
	require.NoError(t, err)

	// The flag wins, the remaining env values stick
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, testSecret, cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7, cfg.LoginRateLimit)
	assert.Equal(t, []string{"X-Real-IP", "CF-Connecting-IP"}, cfg.ClientIPHeaders)
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.JWTSecret = testSecret
		return cfg
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "jwt secret"},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "access token ttl"},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenTTL = -time.Hour }, "refresh token ttl"},
		{"zero window", func(c *Config) { c.RateLimitWindow = 0 }, "rate limit window"},
		{"zero login limit", func(c *Config) { c.LoginRateLimit = 0 }, "login rate limit"},
		{"negative default limit", func(c *Config) { c.DefaultRateLimit = -1 }, "default rate limit"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
