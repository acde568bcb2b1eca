package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	apperrors "github.com/utafrali/VideoTubeGo/pkg/errors"
)

// SubscriptionRepository implements repository.SubscriptionRepository using MongoDB.
type SubscriptionRepository struct {
	subscriptions *mongo.Collection
}

// NewSubscriptionRepository creates a new MongoDB-backed subscription repository.
func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{subscriptions: db.Collection(SubscriptionsCollection)}
}

// Toggle deletes the subscriber's subscription to channel when present and
// inserts one otherwise. It returns the resulting subscription state.
func (r *SubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	subscriber, err := primitive.ObjectIDFromHex(subscriberID)
	if err != nil {
		return false, apperrors.InvalidInput("invalid subscriber id")
	}
	channel, err := primitive.ObjectIDFromHex(channelID)
	if err != nil {
		return false, apperrors.InvalidInput("invalid channel id")
	}

	filter := bson.M{"subscriber": subscriber, "channel": channel}
	res, err := r.subscriptions.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	ts := now()
	doc := subscriptionDocument{
		ID:         primitive.NewObjectID(),
		Subscriber: subscriber,
		Channel:    channel,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if _, err := r.subscriptions.InsertOne(ctx, doc); err != nil {
		// A concurrent toggle inserted the same pair first.
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}
