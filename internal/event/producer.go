package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	pkgkafka "github.com/utafrali/VideoTubeGo/pkg/kafka"
)

// Kafka topics for user domain events.
var (
	TopicUserRegistered      = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserUpdated         = pkgkafka.Topic(AggregateTypeUser, "updated")
	TopicUserPasswordChanged = pkgkafka.Topic(AggregateTypeUser, "password_changed")
)

// AggregateTypeUser is the aggregate type of user events.
const AggregateTypeUser = "user"

// SourceVideoTube identifies events originating from this service.
const SourceVideoTube = "videotube-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	FullName   string   `json:"fullName"`
	Avatar     string   `json:"avatar"`
	CoverImage string   `json:"coverImage"`
	Changed    []string `json:"changed"`
}

// UserPasswordChangedData is the payload for a user.password_changed event.
type UserPasswordChangedData struct {
	UserID string `json:"userId"`
}

// Publisher publishes user domain events.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User, changed ...string) error
	PublishPasswordChanged(ctx context.Context, userID string) error
}

// Writer sends an event envelope to a topic. *pkgkafka.Producer satisfies it.
type Writer interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  Writer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Writer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Avatar:   user.Avatar,
	})
}

// PublishUserUpdated publishes a user.updated event naming the changed fields.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User, changed ...string) error {
	return p.publish(ctx, TopicUserUpdated, user.ID, UserUpdatedData{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		Changed:    changed,
	})
}

// PublishPasswordChanged publishes a user.password_changed event.
func (p *Producer) PublishPasswordChanged(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserPasswordChanged, userID, UserPasswordChangedData{UserID: userID})
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, userID, AggregateTypeUser, SourceVideoTube, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published user event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}

// NoopPublisher discards events. It is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishUserRegistered(context.Context, *domain.User) error { return nil }

func (NoopPublisher) PublishUserUpdated(context.Context, *domain.User, ...string) error { return nil }

func (NoopPublisher) PublishPasswordChanged(context.Context, string) error { return nil }
