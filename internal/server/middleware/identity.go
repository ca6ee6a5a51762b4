package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/shopauth/internal/server/token"
)

// contextKey type for context keys
type contextKey string

// identityKey stores the verified Identity in the request context
const identityKey contextKey = "identity"

// Identity is the verified caller attached to the request context.
type Identity struct {
	Subject string   // username
	UserID  string
	Roles   []string
}

// IdentityFromContext returns the verified identity, if the request
// carried a valid bearer token.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// HasRole reports whether the identity carries the given role label.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IdentityMiddleware extracts and verifies the bearer token and, when
// valid, attaches the caller's identity to the request context. It never
// rejects a request: a missing, malformed or invalid token just leaves
// the request anonymous, and per-route authorization produces the actual
// 401/403. Parse failures are logged at debug level only.
func IdentityMiddleware(logger *slog.Logger, codec *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := codec.Verify(tokenString)
			if err != nil {
				logger.DebugContext(r.Context(), "bearer token rejected", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			identity := Identity{
				Subject: claims.Subject,
				UserID:  claims.UserID,
				Roles:   claims.Roles,
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)

			logger.DebugContext(ctx, "request authenticated",
				slog.String("user_id", identity.UserID),
				slog.String("username", identity.Subject))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthMiddleware rejects requests that carry no verified identity.
// Must run after IdentityMiddleware in the chain.
func RequireAuthMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				logger.WarnContext(r.Context(), "unauthenticated request rejected",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Not authenticated"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns false for a missing or malformed header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
