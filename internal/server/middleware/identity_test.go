package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/shopauth/internal/server/token"
)

const testSecret = "middleware-test-secret-32-bytes!!!"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCodec(t *testing.T) *token.Service {
	t.Helper()
	codec, err := token.NewService(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return codec
}

// identityProbe records the identity the middleware attached, if any.
type identityProbe struct {
	called   bool
	identity Identity
	ok       bool
}

func (p *identityProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.identity, p.ok = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityMiddleware_ValidToken(t *testing.T) {
	codec := newTestCodec(t)
	tokenString, err := codec.IssueAccess("user-1", "alice", []string{"USER"})
	require.NoError(t, err)

	probe := &identityProbe{}
	mw := IdentityMiddleware(discardLogger(), codec)(probe.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	require.True(t, probe.called)
	require.True(t, probe.ok)
	assert.Equal(t, "user-1", probe.identity.UserID)
	assert.Equal(t, "alice", probe.identity.Subject)
	assert.Equal(t, []string{"USER"}, probe.identity.Roles)
}

func TestIdentityMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	codec := newTestCodec(t)
	tokenString, err := codec.IssueAccess("user-1", "alice", []string{"USER"})
	require.NoError(t, err)

	probe := &identityProbe{}
	mw := IdentityMiddleware(discardLogger(), codec)(probe.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+tokenString)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	require.True(t, probe.ok)
	assert.Equal(t, "user-1", probe.identity.UserID)
}

func TestIdentityMiddleware_NeverRejects(t *testing.T) {
	codec := newTestCodec(t)

	expiredCodec, err := token.NewService(testSecret, 0, time.Hour)
	require.NoError(t, err)
	expired, err := expiredCodec.IssueAccess("user-1", "alice", []string{"USER"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer "},
		{"bare token without scheme", "some-token"},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &identityProbe{}
			mw := IdentityMiddleware(discardLogger(), codec)(probe.handler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			// The request goes through anonymously
			assert.Equal(t, http.StatusOK, rec.Code)
			require.True(t, probe.called)
			assert.False(t, probe.ok)
		})
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	codec := newTestCodec(t)
	tokenString, err := codec.IssueAccess("user-1", "alice", []string{"USER"})
	require.NoError(t, err)

	probe := &identityProbe{}
	logger := discardLogger()
	chain := IdentityMiddleware(logger, codec)(RequireAuthMiddleware(logger)(probe.handler()))

	t.Run("anonymous is rejected", func(t *testing.T) {
		probe.called = false

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())
		assert.False(t, probe.called)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		probe.called = false

		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, probe.called)
	})
}

func TestIdentityHasRole(t *testing.T) {
	id := Identity{Roles: []string{"USER", "ADMIN"}}

	assert.True(t, id.HasRole("USER"))
	assert.True(t, id.HasRole("ADMIN"))
	assert.False(t, id.HasRole("OPERATOR"))
	assert.False(t, id.HasRole("user")) // role labels are case-sensitive
}
