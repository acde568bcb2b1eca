package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// ChannelRepository implements repository.ChannelRepository with
// aggregation pipelines over the users collection.
type ChannelRepository struct {
	users *mongo.Collection
}

// NewChannelRepository creates a new MongoDB-backed channel repository.
func NewChannelRepository(db *mongo.Database) *ChannelRepository {
	return &ChannelRepository{users: db.Collection(UsersCollection)}
}

// channelProfilePipeline matches the channel by username, joins its
// subscriptions in both directions and projects the public profile.
func channelProfilePipeline(username, viewerID string) mongo.Pipeline {
	var isSubscribed any = false
	if viewer, err := primitive.ObjectIDFromHex(viewerID); err == nil {
		isSubscribed = bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}}
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed":              isSubscribed,
		}}},
		{{Key: "$project", Value: bson.M{
			"username":                  1,
			"fullName":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
			"createdAt":                 1,
		}}},
	}
}

// GetChannelProfile returns the profile of the channel owned by username.
func (r *ChannelRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	cursor, err := r.users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
	if err != nil {
		return nil, fmt.Errorf("aggregate channel profile: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []channelProfileDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode channel profile: %w", err)
	}
	if len(docs) == 0 {
		return nil, apperrors.NotFound("channel does not exist")
	}
	return docs[0].toDomain(), nil
}

// watchHistoryPipeline joins the user's watched videos, each with its owner
// reduced to a public projection. The stored id list is kept alongside the
// joined videos because $lookup does not preserve its order.
func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchedVideos",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"fullName": 1, "username": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1, "watchedVideos": 1}}},
	}
}

// GetWatchHistory returns the user's watched videos in the order they were
// recorded. A video watched twice appears twice; ids whose video no longer
// exists are skipped.
func (r *ChannelRepository) GetWatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperrors.NotFound("user not found")
	}

	cursor, err := r.users.Aggregate(ctx, watchHistoryPipeline(oid))
	if err != nil {
		return nil, fmt.Errorf("aggregate watch history: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []watchHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode watch history: %w", err)
	}
	if len(docs) == 0 {
		return nil, apperrors.NotFound("user not found")
	}

	return orderWatchHistory(docs[0].WatchHistory, docs[0].WatchedVideos), nil
}

func orderWatchHistory(ids []primitive.ObjectID, videos []watchedVideoDocument) []domain.WatchedVideo {
	byID := make(map[primitive.ObjectID]*watchedVideoDocument, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}

	out := make([]domain.WatchedVideo, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v.toDomain())
		}
	}
	return out
}
