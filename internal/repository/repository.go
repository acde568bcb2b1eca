package repository

import (
	"context"

	"github.com/utafrali/VideoTubeGo/internal/domain"
)

// UserUpdate lists the profile fields to overwrite. Nil fields are left untouched.
type UserUpdate struct {
	FullName   *string
	Username   *string
	Avatar     *string
	CoverImage *string
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Username == nil && u.Avatar == nil && u.CoverImage == nil
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and sets its ID.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their stored (lowercase) username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by their exact email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsernameOrEmail retrieves the first user matching either
	// identifier. Empty identifiers are ignored.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)

	// SetRefreshToken stores the digest of the user's current refresh token.
	SetRefreshToken(ctx context.Context, id, digest string) error

	// ClearRefreshToken removes the stored refresh token digest.
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdatePassword overwrites only the password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// Update applies the non-nil fields and returns the updated user.
	Update(ctx context.Context, id string, update UserUpdate) (*domain.User, error)

	// AppendWatchHistory pushes a video id onto the user's watch history.
	AppendWatchHistory(ctx context.Context, id, videoID string) error
}

// ChannelRepository runs the channel and watch history aggregations.
type ChannelRepository interface {
	// GetChannelProfile returns the profile of the channel owned by username.
	// viewerID may be empty for anonymous viewers.
	GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)

	// GetWatchHistory returns the user's watched videos in watch order.
	GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}

// VideoRepository defines the read access this service needs to videos.
type VideoRepository interface {
	// Exists reports whether a video with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)
}

// SubscriptionRepository defines subscription persistence operations.
type SubscriptionRepository interface {
	// Toggle removes the subscription when present and creates it otherwise.
	// It returns whether the subscriber is subscribed afterwards.
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// LoginAttemptStore counts failed logins per identifier within a window.
type LoginAttemptStore interface {
	// Failures returns the number of failures recorded in the current window.
	Failures(ctx context.Context, identifier string) (int, error)

	// RecordFailure counts a failed login and returns the new total.
	RecordFailure(ctx context.Context, identifier string) (int, error)

	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, identifier string) error
}
