package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rateLimitBody is the exact 429 response body.
const rateLimitBody = `{"error": "Too many requests. Please try again later."}`

// RateLimitConfig tunes the sliding-window limiter.
type RateLimitConfig struct {
	// Window is the trailing interval requests are counted over.
	Window time.Duration

	// DefaultLimit applies to paths without an entry in PathLimits.
	DefaultLimit int

	// PathLimits maps exact request paths to their per-window limit.
	PathLimits map[string]int

	// TrustHeaders is the ordered list of headers consulted for the
	// client address before falling back to the peer address. Trusting
	// them is only sound behind a proxy that strips client-supplied
	// values; deployments without one should leave this empty.
	TrustHeaders []string
}

// RateLimiter is a sliding-window request limiter keyed by
// clientAddress:path. For each key it keeps the timestamps of requests
// seen inside the trailing window; prune, check and append happen under
// the key's lock, so racing requests cannot lose or duplicate entries.
type RateLimiter struct {
	cfg      RateLimitConfig
	logger   *slog.Logger
	now      func() time.Time
	cleanupC chan struct{}

	mu      sync.Mutex
	windows map[string]*window
}

// window holds the request timestamps for one key.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// NewRateLimiter creates a limiter and starts the idle-key sweep.
func NewRateLimiter(cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		cleanupC: make(chan struct{}),
		windows:  make(map[string]*window),
	}

	go rl.cleanup()

	return rl
}

// Stop terminates the sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.cleanupC)
}

// Allow records a request for key if it is within limit. It prunes
// timestamps older than the window, rejects without recording when the
// remaining count has reached the limit, and appends otherwise.
// Returns the remaining quota after this request and the window reset time.
func (rl *RateLimiter) Allow(key string, limit int) (allowed bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	w, exists := rl.windows[key]
	if !exists {
		w = &window{}
		rl.windows[key] = w
	}
	rl.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := rl.now()
	reset = now.Add(rl.cfg.Window)

	w.prune(now, rl.cfg.Window)

	if len(w.stamps) >= limit {
		return false, 0, reset
	}

	w.stamps = append(w.stamps, now)

	return true, limit - len(w.stamps), reset
}

// prune drops timestamps that have fallen out of the trailing window.
func (w *window) prune(now time.Time, windowSize time.Duration) {
	cutoff := now.Add(-windowSize)
	kept := w.stamps[:0]
	for _, t := range w.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.stamps = kept
}

// limitFor returns the per-window limit for a request path.
func (rl *RateLimiter) limitFor(path string) int {
	if limit, ok := rl.cfg.PathLimits[path]; ok {
		return limit
	}
	return rl.cfg.DefaultLimit
}

// Middleware gates requests through the limiter and reports quota via
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset (epoch
// seconds) on every gated request. Rejections get HTTP 429 and are not
// counted against the window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := rl.limitFor(r.URL.Path)
		key := rl.ClientAddress(r) + ":" + r.URL.Path

		allowed, remaining, reset := rl.Allow(key, limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("key", key),
				slog.String("method", r.Method),
				slog.Int("limit", limit))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(rateLimitBody))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientAddress derives the limiter key's address part. Headers are
// consulted in the configured trust order; X-Forwarded-For contributes
// its first entry, trimmed. Falls back to the peer address without port.
func (rl *RateLimiter) ClientAddress(r *http.Request) string {
	for _, header := range rl.cfg.TrustHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if strings.EqualFold(header, "X-Forwarded-For") {
			if idx := strings.IndexByte(value, ','); idx >= 0 {
				value = value[:idx]
			}
		}
		return strings.TrimSpace(value)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// cleanup periodically drops keys whose windows have gone idle, bounding
// table growth from one-off clients.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cfg.Window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweepIdle()
		case <-rl.cleanupC:
			return
		}
	}
}

// sweepIdle removes windows with no timestamps left inside the window.
func (rl *RateLimiter) sweepIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		w.mu.Lock()
		w.prune(now, rl.cfg.Window)
		if len(w.stamps) == 0 {
			delete(rl.windows, key)
		}
		w.mu.Unlock()
	}
}
