package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/pkg/httputil"
	"github.com/utafrali/VideoTubeGo/pkg/validator"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// AuthHandler handles registration and the session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	cookies  CookieConfig
	uploads  UploadConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(sessions *service.SessionService, cookies CookieConfig, uploads UploadConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies, uploads: uploads, logger: logger}
}

// --- Request DTOs ---

// LoginRequest is the JSON request body for user login. One of username or
// email is required.
type LoginRequest struct {
	Username string `json:"username" validate:"max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

// RefreshTokenRequest is the JSON request body for token refresh when the
// refresh token is not sent as a cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Response types ---

// LoginResponse carries the user and both tokens for clients that do not
// use cookies.
type LoginResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// --- Handlers ---

// Register handles POST /api/v1/users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var avatarPath, coverPath string
	defer func() { cleanup(r, avatarPath, coverPath) }()

	if !h.uploads.parseMultipart(w, r) {
		return
	}

	var err error
	if avatarPath, err = h.uploads.stage(r, "avatar"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if coverPath, err = h.uploads.stage(r, "coverImage"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.sessions.Register(r.Context(), service.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	session, err := h.sessions.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.setSession(w, session.Tokens)
	httputil.WriteSuccess(w, http.StatusOK, LoginResponse{
		User:         session.User,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.clearSession(w)
	httputil.WriteSuccess(w, http.StatusOK, struct{}{}, "user logged out")
}

// RefreshToken handles POST /api/v1/users/auth/refresh-token. The token is
// read from the refreshToken cookie, then from the JSON body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req RefreshTokenRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httputil.WriteValidationError(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	tokens, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.setSession(w, *tokens)
	httputil.WriteSuccess(w, http.StatusOK, tokens, "access token refreshed")
}
