package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/VideoTubeGo/pkg/httputil"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
)

// AccessTokenCookie is the cookie that carries the access token for browser clients.
const AccessTokenCookie = "accessToken"

type contextKeyType string

const identityKey contextKeyType = "identity"

// Identity is the verified caller attached to the request context.
type Identity struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

// TokenValidator verifies an access token and returns the identity it asserts.
type TokenValidator func(token string) (*Identity, error)

// Auth rejects requests without a valid access token. The token is read from
// the accessToken cookie first, then from an Authorization: Bearer header.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httputil.WriteErrorMessage(w, r, http.StatusUnauthorized, "unauthorized request")
				return
			}

			identity, err := validate(token)
			if err != nil {
				httputil.WriteErrorMessage(w, r, http.StatusUnauthorized, "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid access token is
// present and lets the request through anonymously otherwise.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if identity, err := validate(token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores identity in ctx. Handlers read it back with IdentityFromContext.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the verified caller, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}

// UserIDFromContext returns the verified caller's id or "".
func UserIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.UserID
	}
	return ""
}

// withIdentity also tags the request-scoped logger with the user id.
func withIdentity(ctx context.Context, identity *Identity) context.Context {
	ctx = WithIdentity(ctx, identity)
	ctx = logger.WithUserID(ctx, identity.UserID)
	if l := logger.FromContext(ctx); l != slog.Default() {
		ctx = logger.NewContext(ctx, l.With(slog.String("user_id", identity.UserID)))
	}
	return ctx
}

func extractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
