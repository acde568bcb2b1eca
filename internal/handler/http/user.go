package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/pkg/httputil"
	"github.com/utafrali/VideoTubeGo/pkg/validator"
)

// UserHandler handles the signed-in user's account endpoints.
type UserHandler struct {
	accounts *service.AccountService
	sessions *service.SessionService
	channels *service.ChannelService
	uploads  UploadConfig
	logger   *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(
	accounts *service.AccountService,
	sessions *service.SessionService,
	channels *service.ChannelService,
	uploads UploadConfig,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		sessions: sessions,
		channels: channels,
		uploads:  uploads,
		logger:   logger,
	}
}

// --- Request DTOs ---

// UpdateAccountRequest is the JSON request body for updating account details.
type UpdateAccountRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,notblank,max=100"`
	Username *string `json:"username" validate:"omitempty,notblank,max=50"`
}

// ChangePasswordRequest is the JSON request body for changing the password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// RecordWatchRequest is the JSON request body for adding a video to the
// watch history.
type RecordWatchRequest struct {
	VideoID string `json:"videoId" validate:"required,objectid"`
}

// --- Handlers ---

// GetCurrentUser handles GET /api/v1/users/me
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetCurrentUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req UpdateAccountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	user, err := h.accounts.UpdateAccount(r.Context(), userID, service.UpdateAccountInput{
		FullName: req.FullName,
		Username: req.Username,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user, "account details updated successfully")
}

// ChangePassword handles PATCH /api/v1/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	err := h.sessions.ChangePassword(r.Context(), userID, service.ChangePasswordInput{
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/me/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.accounts.UpdateAvatar, "avatar image updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/me/cover-image
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.accounts.UpdateCoverImage, "cover image updated successfully")
}

type imageUpdater func(ctx context.Context, userID, localPath string) (*domain.User, error)

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdater, message string) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var path string
	defer func() { cleanup(r, path) }()

	if !h.uploads.parseMultipart(w, r) {
		return
	}
	path, err := h.uploads.stage(r, field)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := update(r.Context(), userID, path)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, user, message)
}

// GetWatchHistory handles GET /api/v1/users/me/watch-history
func (h *UserHandler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	history, err := h.channels.GetWatchHistory(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, history, "watch history fetched successfully")
}

// RecordWatch handles POST /api/v1/users/me/watch-history
func (h *UserHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req RecordWatchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	if err := h.accounts.RecordWatch(r.Context(), userID, req.VideoID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, struct{}{}, "video added to watch history")
}
