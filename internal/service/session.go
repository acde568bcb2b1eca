package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/event"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	"github.com/utafrali/VideoTubeGo/internal/storage"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// DefaultBcryptCost is the cost factor for bcrypt password hashing.
const DefaultBcryptCost = 12

// MinPasswordLength is the minimum password length required.
const MinPasswordLength = 8

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// SessionService implements registration and the token-based session
// lifecycle.
type SessionService struct {
	users       repository.UserRepository
	uploader    storage.Uploader
	jwtManager  *auth.JWTManager
	producer    event.Publisher
	attempts    repository.LoginAttemptStore
	maxAttempts int
	bcryptCost  int
	logger      *slog.Logger
}

// SessionOption customizes a SessionService.
type SessionOption func(*SessionService)

// WithBcryptCost sets the bcrypt cost used for new password hashes.
func WithBcryptCost(cost int) SessionOption {
	return func(s *SessionService) {
		s.bcryptCost = cost
	}
}

// WithLoginLimiter locks an identifier out after maxAttempts failed logins
// within the store's window.
func WithLoginLimiter(store repository.LoginAttemptStore, maxAttempts int) SessionOption {
	return func(s *SessionService) {
		s.attempts = store
		s.maxAttempts = maxAttempts
	}
}

// NewSessionService creates a new session service.
func NewSessionService(
	users repository.UserRepository,
	uploader storage.Uploader,
	jwtManager *auth.JWTManager,
	producer event.Publisher,
	logger *slog.Logger,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		users:      users,
		uploader:   uploader,
		jwtManager: jwtManager,
		producer:   producer,
		bcryptCost: DefaultBcryptCost,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput holds the parameters for registering a new user. The paths
// point at staged uploads; CoverImagePath may be empty.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput holds the parameters for user login. One of Username or Email
// is required.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// ChangePasswordInput holds the parameters for a password change.
type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// Register creates a new user account with an uploaded avatar and an
// optional cover image.
func (s *SessionService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	username := domain.NormalizeUsername(input.Username)
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.InvalidInput("all fields are required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	if input.AvatarPath == "" {
		return nil, apperrors.InvalidInput("avatar file is required")
	}
	avatar, err := s.uploader.Upload(ctx, input.AvatarPath)
	if err != nil || avatar == nil || avatar.URL == "" {
		if err != nil {
			s.logger.WarnContext(ctx, "avatar upload failed", slog.String("error", err.Error()))
		}
		return nil, apperrors.InvalidInput("avatar is required")
	}

	var coverImage string
	if input.CoverImagePath != "" {
		cover, err := s.uploader.Upload(ctx, input.CoverImagePath)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "cover image upload failed, continuing without it",
				slog.String("error", err.Error()),
			)
		case cover != nil:
			coverImage = cover.URL
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		FullName:     fullName,
		Email:        email,
		Username:     username,
		Avatar:       avatar.URL,
		CoverImage:   coverImage,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.InternalWithMessage("something went wrong while registering the user", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", created.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", created.ID),
		slog.String("username", created.Username),
	)

	return created, nil
}

func (s *SessionService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperrors.AlreadyExists("username already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.AlreadyExists("email address already registered")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

// Login authenticates a user by username or email and password, rotates
// the stored refresh token and returns a fresh token pair.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*domain.Session, error) {
	username := domain.NormalizeUsername(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" && email == "" {
		return nil, apperrors.InvalidInput("username or email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	identifier := username
	if identifier == "" {
		identifier = email
	}
	if s.lockedOut(ctx, identifier) {
		return nil, apperrors.TooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("account does not exist")
		}
		return nil, fmt.Errorf("get user for login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, identifier)
		return nil, apperrors.Unauthorized("invalid user credentials")
	}
	s.resetFailures(ctx, identifier)

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &domain.Session{User: user, Tokens: *tokens}, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token must be the one last issued to the user; it is replaced by the new
// one, so each refresh token works once.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("unauthorized request")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	digest := auth.HashToken(refreshToken)
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(digest)) != 1 {
		return nil, apperrors.Unauthorized("refresh token is expired or used")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))
	return tokens, nil
}

// Logout removes the user's stored refresh token so it can no longer be
// exchanged. Access tokens already issued stay valid until they expire.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user logged out", slog.String("user_id", userID))
	return nil
}

// ChangePassword replaces the user's password after verifying the old one.
// The stored refresh token is left in place.
func (s *SessionService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if input.OldPassword == "" || input.NewPassword == "" || input.ConfirmPassword == "" {
		return apperrors.InvalidInput("all password fields are required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return apperrors.InvalidInput("new password and confirmation do not match")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return apperrors.InvalidInput("invalid password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	if err := s.producer.PublishPasswordChanged(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_changed event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	return nil
}

// issueTokens mints an access and a refresh token for user and stores the
// refresh token's digest, replacing the previous one.
func (s *SessionService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(auth.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, apperrors.InternalWithMessage("something went wrong while generating tokens", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.InternalWithMessage("something went wrong while generating tokens", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, auth.HashToken(refreshToken)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// lockedOut reports whether identifier has used up its failed attempts.
// Limiter errors never block a login.
func (s *SessionService) lockedOut(ctx context.Context, identifier string) bool {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return false
	}
	n, err := s.attempts.Failures(ctx, identifier)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read login attempts", slog.String("error", err.Error()))
		return false
	}
	return n >= s.maxAttempts
}

func (s *SessionService) recordFailure(ctx context.Context, identifier string) {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return
	}
	n, err := s.attempts.RecordFailure(ctx, identifier)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login attempt", slog.String("error", err.Error()))
		return
	}
	if n >= s.maxAttempts {
		s.logger.WarnContext(ctx, "login locked after repeated failures",
			slog.String("identifier", identifier),
			slog.Int("attempts", n),
		)
	}
}

func (s *SessionService) resetFailures(ctx context.Context, identifier string) {
	if s.attempts == nil || s.maxAttempts <= 0 {
		return
	}
	if err := s.attempts.Reset(ctx, identifier); err != nil {
		s.logger.ErrorContext(ctx, "failed to reset login attempts", slog.String("error", err.Error()))
	}
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
