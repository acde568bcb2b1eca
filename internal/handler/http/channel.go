package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/pkg/httputil"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
)

// ChannelHandler handles channel profile and subscription endpoints.
type ChannelHandler struct {
	channels *service.ChannelService
	logger   *slog.Logger
}

// NewChannelHandler creates a new channel HTTP handler.
func NewChannelHandler(channels *service.ChannelService, logger *slog.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, logger: logger}
}

// GetChannelProfile handles GET /api/v1/users/channels/{username}. Anonymous
// callers are allowed and always see isSubscribed=false.
func (h *ChannelHandler) GetChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewerID := middleware.UserIDFromContext(r.Context())

	profile, err := h.channels.GetChannelProfile(r.Context(), username, viewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, profile, "user channel fetched successfully")
}

// ToggleSubscription handles POST /api/v1/users/channels/{channelId}/subscription
func (h *ChannelHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	state, err := h.channels.ToggleSubscription(r.Context(), userID, chi.URLParam(r, "channelId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	message := "unsubscribed successfully"
	if state.Subscribed {
		message = "subscribed successfully"
	}
	httputil.WriteSuccess(w, http.StatusOK, state, message)
}
