package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "login_attempts:"

// LoginAttemptStore implements repository.LoginAttemptStore using Redis
// counters that expire after a fixed window.
type LoginAttemptStore struct {
	client *redis.Client
	window time.Duration
}

// NewLoginAttemptStore creates a new Redis-backed login attempt store.
func NewLoginAttemptStore(client *redis.Client, window time.Duration) *LoginAttemptStore {
	return &LoginAttemptStore{
		client: client,
		window: window,
	}
}

func key(identifier string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}

// Failures returns the number of failed logins recorded in the current window.
func (s *LoginAttemptStore) Failures(ctx context.Context, identifier string) (int, error) {
	n, err := s.client.Get(ctx, key(identifier)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get login attempts: %w", err)
	}
	return n, nil
}

// RecordFailure increments the failure counter. The window starts with the
// first failure and is not extended by later ones.
func (s *LoginAttemptStore) RecordFailure(ctx context.Context, identifier string) (int, error) {
	k := key(identifier)

	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr login attempts: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, k, s.window).Err(); err != nil {
			return int(n), fmt.Errorf("redis expire login attempts: %w", err)
		}
	}
	return int(n), nil
}

// Reset clears the failure counter.
func (s *LoginAttemptStore) Reset(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, key(identifier)).Err(); err != nil {
		return fmt.Errorf("redis del login attempts: %w", err)
	}
	return nil
}
