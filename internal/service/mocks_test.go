package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) SetRefreshToken(ctx context.Context, id, digest string) error {
	args := m.Called(ctx, id, digest)
	return args.Error(0)
}

func (m *mockUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) AppendWatchHistory(ctx context.Context, id, videoID string) error {
	args := m.Called(ctx, id, videoID)
	return args.Error(0)
}

// --- Mock Channel Repository ---

type mockChannelRepository struct {
	mock.Mock
}

func (m *mockChannelRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	args := m.Called(ctx, username, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelProfile), args.Error(1)
}

func (m *mockChannelRepository) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WatchedVideo), args.Error(1)
}

// --- Mock Video Repository ---

type mockVideoRepository struct {
	mock.Mock
}

func (m *mockVideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// --- Mock Subscription Repository ---

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Bool(0), args.Error(1)
}

// --- Mock Login Attempt Store ---

type mockLoginAttemptStore struct {
	mock.Mock
}

func (m *mockLoginAttemptStore) Failures(ctx context.Context, identifier string) (int, error) {
	args := m.Called(ctx, identifier)
	return args.Int(0), args.Error(1)
}

func (m *mockLoginAttemptStore) RecordFailure(ctx context.Context, identifier string) (int, error) {
	args := m.Called(ctx, identifier)
	return args.Int(0), args.Error(1)
}

func (m *mockLoginAttemptStore) Reset(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockPublisher) PublishUserUpdated(ctx context.Context, user *domain.User, changed ...string) error {
	args := m.Called(ctx, user, changed)
	return args.Error(0)
}

func (m *mockPublisher) PublishPasswordChanged(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- In-memory user store ---

// memoryUsers is a stateful UserRepository for multi-step session flows.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*domain.User)}
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.AlreadyExists("username already exists")
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	user.WatchHistory = []string{}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *memoryUsers) GetByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return (username != "" && u.Username == username) || (email != "" && u.Email == email)
	})
}

func (r *memoryUsers) mutate(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryUsers) SetRefreshToken(_ context.Context, id, digest string) error {
	return r.mutate(id, func(u *domain.User) { u.RefreshToken = digest })
}

func (r *memoryUsers) ClearRefreshToken(_ context.Context, id string) error {
	return r.mutate(id, func(u *domain.User) { u.RefreshToken = "" })
}

func (r *memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *memoryUsers) Update(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	err := r.mutate(id, func(u *domain.User) {
		if update.FullName != nil {
			u.FullName = *update.FullName
		}
		if update.Username != nil {
			u.Username = *update.Username
		}
		if update.Avatar != nil {
			u.Avatar = *update.Avatar
		}
		if update.CoverImage != nil {
			u.CoverImage = *update.CoverImage
		}
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *memoryUsers) AppendWatchHistory(_ context.Context, id, videoID string) error {
	return r.mutate(id, func(u *domain.User) { u.WatchHistory = append(u.WatchHistory, videoID) })
}

// --- Test Helpers ---

const (
	aliceID   = "65a1f0c2e4b0a1b2c3d4e5f6"
	channelID = "65a1f0c2e4b0a1b2c3d4e5f7"
	videoID   = "65a1f0c2e4b0a1b2c3d4e5f8"
)

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(auth.Config{
		AccessSecret:  "test-access-secret-for-session-tests",
		RefreshSecret: "test-refresh-secret-for-session-tests",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 240 * time.Hour,
		Issuer:        "videotube",
	})
}

// hashForTest creates a bcrypt hash with the minimum cost for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}

// stageFile writes a file the uploader can consume and returns its path.
func stageFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("image-bytes"), 0o600))
	return path
}

func strPtr(s string) *string {
	return &s
}

func aliceUser() *domain.User {
	return &domain.User{
		ID:           aliceID,
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice Liddell",
		Avatar:       "https://media.test/avatar.png",
		WatchHistory: []string{},
		PasswordHash: hashForTest("wonderland"),
	}
}
