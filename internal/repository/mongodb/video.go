package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// VideoRepository implements repository.VideoRepository using MongoDB.
type VideoRepository struct {
	videos *mongo.Collection
}

// NewVideoRepository creates a new MongoDB-backed video repository.
func NewVideoRepository(db *mongo.Database) *VideoRepository {
	return &VideoRepository{videos: db.Collection(VideosCollection)}
}

// Exists reports whether a video with the given id exists. Malformed ids
// never exist.
func (r *VideoRepository) Exists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err = r.videos.FindOne(ctx, bson.M{"_id": oid}, opts).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	default:
		return false, fmt.Errorf("find video: %w", err)
	}
}

// Create inserts a video owned by v.Owner and sets its ID and timestamps.
// Videos are managed by another service; this is used for seeding.
func (r *VideoRepository) Create(ctx context.Context, v *domain.Video) error {
	owner, err := primitive.ObjectIDFromHex(v.Owner)
	if err != nil {
		return apperrors.InvalidInput("invalid video owner")
	}

	ts := now()
	doc := videoDocument{
		ID:          primitive.NewObjectID(),
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		Owner:       owner,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if _, err := r.videos.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}

	v.ID = doc.ID.Hex()
	v.CreatedAt = ts
	v.UpdatedAt = ts
	return nil
}
