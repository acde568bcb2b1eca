package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account. Every user is also a channel.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the public part of a user carried inside access tokens.
type Identity struct {
	ID       string
	Email    string
	Username string
	FullName string
}

// Identity returns the claims an access token asserts for u.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Username: u.Username, FullName: u.FullName}
}

// NormalizeUsername returns the stored form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the result of a successful login.
type Session struct {
	User   *User
	Tokens TokenPair
}

// IsValidID reports whether id is a well-formed entity id.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
