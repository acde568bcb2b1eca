package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	"github.com/utafrali/VideoTubeGo/internal/repository"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// UserRepository implements repository.UserRepository using MongoDB.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(UsersCollection)}
}

// Create inserts a new user and sets its ID and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ts := now()
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		Password:     u.PasswordHash,
		WatchHistory: []primitive.ObjectID{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateUserError(err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	u.ID = doc.ID.Hex()
	u.WatchHistory = []string{}
	u.CreatedAt = ts
	u.UpdatedAt = ts
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByUsername retrieves a user by their stored username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByUsernameOrEmail retrieves the first user matching either identifier.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, apperrors.InvalidInput("username or email is required")
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

// SetRefreshToken stores the digest of the user's current refresh token,
// replacing any previous one.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id, digest string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"refreshToken": digest, "updatedAt": now()},
	})
}

// ClearRefreshToken removes the refreshToken field from the user document.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": now()},
	})
}

// UpdatePassword overwrites only the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": now()},
	})
}

// Update applies the non-nil profile fields and returns the updated user.
func (r *UserRepository) Update(ctx context.Context, id string, update repository.UserUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}

	set := bson.M{"updatedAt": now()}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if update.CoverImage != nil {
		set["coverImage"] = *update.CoverImage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = r.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateUserError(err)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

// AppendWatchHistory pushes videoID onto the user's watch history. Repeats
// are kept.
func (r *UserRepository) AppendWatchHistory(ctx context.Context, id, videoID string) error {
	vid, err := primitive.ObjectIDFromHex(videoID)
	if err != nil {
		return apperrors.InvalidInput("invalid video id")
	}
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"watchHistory": vid},
		"$set":  bson.M{"updatedAt": now()},
	})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperrors.NotFound("user not found")
	}

	res, err := r.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// duplicateUserError names the unique field a duplicate-key error was raised on.
func duplicateUserError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return apperrors.AlreadyExists("email address already registered")
	}
	return apperrors.AlreadyExists("username already exists")
}
