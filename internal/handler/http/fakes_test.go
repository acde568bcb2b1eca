package http

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// fakeStore is an in-memory stand-in for the Mongo repositories. It
// implements the user, channel, video and subscription repositories.
type fakeStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	videos map[string]domain.Video
	subs   map[[2]string]bool
}

var (
	_ repository.UserRepository         = (*fakeStore)(nil)
	_ repository.ChannelRepository      = (*fakeStore)(nil)
	_ repository.VideoRepository        = (*fakeStore)(nil)
	_ repository.SubscriptionRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[string]*domain.User),
		videos: make(map[string]domain.Video),
		subs:   make(map[[2]string]bool),
	}
}

func (s *fakeStore) addVideo(v domain.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = v
}

func (s *fakeStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return apperrors.AlreadyExists("username already exists")
		}
		if u.Email == user.Email {
			return apperrors.AlreadyExists("email address already registered")
		}
	}
	user.ID = primitive.NewObjectID().Hex()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	user.WatchHistory = []string{}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			cp.WatchHistory = append([]string{}, u.WatchHistory...)
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

func (s *fakeStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username })
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

func (s *fakeStore) GetByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool {
		return (username != "" && u.Username == username) || (email != "" && u.Email == email)
	})
}

func (s *fakeStore) mutate(id string, fn func(*domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) SetRefreshToken(_ context.Context, id, digest string) error {
	return s.mutate(id, func(u *domain.User) { u.RefreshToken = digest })
}

func (s *fakeStore) ClearRefreshToken(_ context.Context, id string) error {
	return s.mutate(id, func(u *domain.User) { u.RefreshToken = "" })
}

func (s *fakeStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return s.mutate(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (s *fakeStore) Update(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	err := s.mutate(id, func(u *domain.User) {
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
	return s.GetByID(ctx, id)
}

func (s *fakeStore) AppendWatchHistory(_ context.Context, id, videoID string) error {
	return s.mutate(id, func(u *domain.User) { u.WatchHistory = append(u.WatchHistory, videoID) })
}

func (s *fakeStore) GetChannelProfile(_ context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		p := &domain.ChannelProfile{
			ID:         u.ID,
			Username:   u.Username,
			FullName:   u.FullName,
			Email:      u.Email,
			Avatar:     u.Avatar,
			CoverImage: u.CoverImage,
			CreatedAt:  u.CreatedAt,
		}
		for key := range s.subs {
			if key[1] == u.ID {
				p.SubscribersCount++
				if key[0] == viewerID {
					p.IsSubscribed = true
				}
			}
			if key[0] == u.ID {
				p.ChannelsSubscribedToCount++
			}
		}
		return p, nil
	}
	return nil, apperrors.NotFound("channel does not exist")
}

func (s *fakeStore) GetWatchHistory(_ context.Context, userID string) ([]domain.WatchedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	var out []domain.WatchedVideo
	for _, id := range u.WatchHistory {
		v, ok := s.videos[id]
		if !ok {
			continue
		}
		entry := domain.WatchedVideo{ID: v.ID, Title: v.Title, IsPublished: v.IsPublished}
		if owner, ok := s.users[v.Owner]; ok {
			entry.Owner = &domain.VideoOwner{ID: owner.ID, FullName: owner.FullName, Username: owner.Username, Avatar: owner.Avatar}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *fakeStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.videos[id]
	return ok, nil
}

func (s *fakeStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{subscriberID, channelID}
	if s.subs[key] {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = true
	return true, nil
}
