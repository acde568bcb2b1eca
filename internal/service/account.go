package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/event"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	"github.com/utafrali/VideoTubeGo/internal/storage"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// AccountService implements the signed-in user's account operations.
type AccountService struct {
	users    repository.UserRepository
	videos   repository.VideoRepository
	uploader storage.Uploader
	producer event.Publisher
	logger   *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	uploader storage.Uploader,
	producer event.Publisher,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		videos:   videos,
		uploader: uploader,
		producer: producer,
		logger:   logger,
	}
}

// UpdateAccountInput holds the account fields to change. Nil fields are kept.
type UpdateAccountInput struct {
	FullName *string
	Username *string
}

// GetCurrentUser returns the signed-in user.
func (s *AccountService) GetCurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount changes the user's full name and/or username.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, input UpdateAccountInput) (*domain.User, error) {
	if input.FullName == nil && input.Username == nil {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	var (
		update  repository.UserUpdate
		changed []string
	)
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, apperrors.InvalidInput("full name cannot be blank")
		}
		update.FullName = &fullName
		changed = append(changed, "fullName")
	}
	if input.Username != nil {
		username := domain.NormalizeUsername(*input.Username)
		if username == "" {
			return nil, apperrors.InvalidInput("username cannot be blank")
		}
		existing, err := s.users.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != userID:
			return nil, apperrors.AlreadyExists("username already exists")
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			return nil, fmt.Errorf("check username: %w", err)
		}
		update.Username = &username
		changed = append(changed, "username")
	}

	user, err := s.users.Update(ctx, userID, update)
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, user, changed...)
	s.logger.InfoContext(ctx, "account updated",
		slog.String("user_id", user.ID),
		slog.Any("fields", changed),
	)
	return user, nil
}

// UpdateAvatar uploads a new avatar and stores its URL.
func (s *AccountService) UpdateAvatar(ctx context.Context, userID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, apperrors.InvalidInput("avatar file is required")
	}
	url, err := s.upload(ctx, localPath)
	if err != nil {
		return nil, apperrors.InvalidInput("error while uploading avatar")
	}

	user, err := s.users.Update(ctx, userID, repository.UserUpdate{Avatar: &url})
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, user, "avatar")
	return user, nil
}

// UpdateCoverImage uploads a new cover image and stores its URL.
func (s *AccountService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*domain.User, error) {
	if localPath == "" {
		return nil, apperrors.InvalidInput("cover image file is required")
	}
	url, err := s.upload(ctx, localPath)
	if err != nil {
		return nil, apperrors.InvalidInput("error while uploading cover image")
	}

	user, err := s.users.Update(ctx, userID, repository.UserUpdate{CoverImage: &url})
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, user, "coverImage")
	return user, nil
}

// RecordWatch appends a video to the user's watch history. Watching the
// same video again adds another entry.
func (s *AccountService) RecordWatch(ctx context.Context, userID, videoID string) error {
	if !domain.IsValidID(videoID) {
		return apperrors.InvalidInput("invalid video id")
	}

	exists, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return apperrors.NotFound("video not found")
	}

	return s.users.AppendWatchHistory(ctx, userID, videoID)
}

func (s *AccountService) upload(ctx context.Context, localPath string) (string, error) {
	res, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		s.logger.WarnContext(ctx, "media upload failed", slog.String("error", err.Error()))
		return "", err
	}
	if res == nil || res.URL == "" {
		return "", errors.New("upload returned no url")
	}
	return res.URL, nil
}

func (s *AccountService) publishUpdated(ctx context.Context, user *domain.User, changed ...string) {
	if err := s.producer.PublishUserUpdated(ctx, user, changed...); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
