package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg RateLimitConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(cfg, discardLogger())
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 5,
	})

	base := time.Now()
	clock := base
	rl.now = func() time.Time { return clock }

	// The first five requests pass, with remaining counting down
	for i := 0; i < 5; i++ {
		allowed, remaining, _ := rl.Allow("1.2.3.4:/api/auth/login", 5)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 4-i, remaining)
	}

	// The sixth is rejected
	allowed, remaining, _ := rl.Allow("1.2.3.4:/api/auth/login", 5)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)

	// Still rejected just inside the window
	clock = base.Add(time.Minute - time.Second)
	allowed, _, _ = rl.Allow("1.2.3.4:/api/auth/login", 5)
	assert.False(t, allowed)

	// Past the window the quota is fresh again
	clock = base.Add(time.Minute + time.Second)
	allowed, remaining, _ = rl.Allow("1.2.3.4:/api/auth/login", 5)
	assert.True(t, allowed)
	assert.Equal(t, 4, remaining)
}

func TestRateLimiter_RejectionsDoNotConsumeQuota(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 2,
	})

	base := time.Now()
	clock := base
	rl.now = func() time.Time { return clock }

	allowed, _, _ := rl.Allow("k", 2)
	require.True(t, allowed)
	clock = base.Add(30 * time.Second)
	allowed, _, _ = rl.Allow("k", 2)
	require.True(t, allowed)

	// Hammering while over the limit must not extend the block: only the
	// two recorded requests age out, not the rejected ones.
	for i := 0; i < 10; i++ {
		clock = clock.Add(time.Second)
		allowed, _, _ = rl.Allow("k", 2)
		assert.False(t, allowed)
	}

	// The first recorded request has aged out, so one slot is free.
	clock = base.Add(time.Minute + time.Second)
	allowed, _, _ = rl.Allow("k", 2)
	assert.True(t, allowed)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 1,
	})

	allowed, _, _ := rl.Allow("1.1.1.1:/api/auth/login", 1)
	require.True(t, allowed)
	allowed, _, _ = rl.Allow("1.1.1.1:/api/auth/login", 1)
	require.False(t, allowed)

	// A different address, and the same address on a different path, both
	// have their own quota.
	allowed, _, _ = rl.Allow("2.2.2.2:/api/auth/login", 1)
	assert.True(t, allowed)
	allowed, _, _ = rl.Allow("1.1.1.1:/api/auth/register", 1)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 100,
		PathLimits: map[string]int{
			"/api/auth/login": 2,
		},
	})

	mw := rl.Middleware(okHandler())

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:52000"
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec
	}

	rec := send("/api/auth/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	reset, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Add(time.Minute).Unix(), reset, 5)

	rec = send("/api/auth/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// Third hit on the limited path is rejected with the quota headers set
	rec = send("/api/auth/login")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Too many requests. Please try again later."}`, rec.Body.String())
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// Unlisted paths use the default limit
	rec = send("/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimitMiddleware_SeparatesClients(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 1,
	})

	mw := rl.Middleware(okHandler())

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2222").Code) // same host, new port
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code)
}

func TestClientAddress(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 1,
		TrustHeaders: []string{"X-Forwarded-For", "X-Real-IP"},
	})

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "peer address without headers",
			remoteAddr: "192.0.2.1:52000",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:52000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for takes first entry",
			remoteAddr: "10.0.0.1:52000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for entry is trimmed",
			remoteAddr: "10.0.0.1:52000",
			headers:    map[string]string{"X-Forwarded-For": "  203.0.113.7 , 10.0.0.2"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:52000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for wins over x-real-ip",
			remoteAddr: "10.0.0.1:52000",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.7",
				"X-Real-IP":       "203.0.113.9",
			},
			want: "203.0.113.7",
		},
		{
			name:       "unparseable peer address used verbatim",
			remoteAddr: "unix-socket",
			want:       "unix-socket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, rl.ClientAddress(req))
		})
	}
}

func TestClientAddress_HeadersIgnoredWhenNotTrusted(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 1,
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:52000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	assert.Equal(t, "192.0.2.1", rl.ClientAddress(req))
}

func TestSweepIdle(t *testing.T) {
	rl := newTestLimiter(t, RateLimitConfig{
		Window:       time.Minute,
		DefaultLimit: 5,
	})

	base := time.Now()
	clock := base
	rl.now = func() time.Time { return clock }

	rl.Allow("a", 5)
	rl.Allow("b", 5)

	rl.mu.Lock()
	assert.Len(t, rl.windows, 2)
	rl.mu.Unlock()

	// "a" goes idle, "b" stays active
	clock = base.Add(2 * time.Minute)
	rl.Allow("b", 5)
	rl.sweepIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.windows, 1)
	_, ok := rl.windows["b"]
	assert.True(t, ok)
}
