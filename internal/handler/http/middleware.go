package http

import (
	"net/http"
	"strings"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/pkg/httputil"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteErrorMessage(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// TokenValidator bridges access token verification to the auth middleware.
func TokenValidator(jwtManager *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Identity, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Identity{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
			FullName: claims.FullName,
		}, nil
	}
}

// callerID returns the verified caller's id, writing a 401 when there is none.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		httputil.WriteErrorMessage(w, r, http.StatusUnauthorized, "unauthorized request")
		return "", false
	}
	return id, true
}
