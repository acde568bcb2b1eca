package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// ChannelService serves channel profiles, watch history and subscriptions.
type ChannelService struct {
	users         repository.UserRepository
	channels      repository.ChannelRepository
	subscriptions repository.SubscriptionRepository
	logger        *slog.Logger
}

// NewChannelService creates a new channel service.
func NewChannelService(
	users repository.UserRepository,
	channels repository.ChannelRepository,
	subscriptions repository.SubscriptionRepository,
	logger *slog.Logger,
) *ChannelService {
	return &ChannelService{
		users:         users,
		channels:      channels,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// GetChannelProfile returns the channel owned by username. viewerID is the
// signed-in caller, or empty for anonymous requests.
func (s *ChannelService) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	return s.channels.GetChannelProfile(ctx, username, viewerID)
}

// GetWatchHistory returns the user's watched videos in watch order.
func (s *ChannelService) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	history, err := s.channels.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []domain.WatchedVideo{}
	}
	return history, nil
}

// ToggleSubscription subscribes the caller to the channel, or unsubscribes
// when already subscribed.
func (s *ChannelService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (*domain.SubscriptionState, error) {
	if !domain.IsValidID(channelID) {
		return nil, apperrors.InvalidInput("invalid channel id")
	}
	// ObjectID hex is case-insensitive; stored ids are lowercase.
	channelID = strings.ToLower(channelID)
	if strings.EqualFold(subscriberID, channelID) {
		return nil, apperrors.InvalidInput("you cannot subscribe to your own channel")
	}

	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("channel does not exist")
		}
		return nil, err
	}

	subscribed, err := s.subscriptions.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subscription toggled",
		slog.String("subscriber_id", subscriberID),
		slog.String("channel_id", channelID),
		slog.Bool("subscribed", subscribed),
	)
	return &domain.SubscriptionState{ChannelID: channelID, Subscribed: subscribed}, nil
}
