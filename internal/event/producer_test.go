package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/VideoTubeGo/internal/domain"
	pkgkafka "github.com/utafrali/VideoTubeGo/pkg/kafka"
	"github.com/utafrali/VideoTubeGo/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingWriter struct {
	sent []published
	err  error
}

func (w *recordingWriter) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if w.err != nil {
		return w.err
	}
	w.sent = append(w.sent, published{topic: topic, event: event})
	return nil
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:       "65a1f0c2e4b0a1b2c3d4e5f6",
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Liddell",
		Avatar:   "https://cdn.example.com/a.png",
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "videotube.user.registered", TopicUserRegistered)
	assert.Equal(t, "videotube.user.updated", TopicUserUpdated)
	assert.Equal(t, "videotube.user.password_changed", TopicUserPasswordChanged)
}

func TestProducer_PublishUserRegistered(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducer(w, logger.Discard())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishUserRegistered(ctx, sampleUser()))

	require.Len(t, w.sent, 1)
	msg := w.sent[0]
	assert.Equal(t, TopicUserRegistered, msg.topic)
	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", msg.event.AggregateID)
	assert.Equal(t, AggregateTypeUser, msg.event.AggregateType)
	assert.Equal(t, SourceVideoTube, msg.event.Source)
	assert.Equal(t, "corr-1", msg.event.CorrelationID)

	var data UserRegisteredData
	require.NoError(t, json.Unmarshal(msg.event.Data, &data))
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "alice@example.com", data.Email)
}

func TestProducer_PublishUserUpdated(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducer(w, logger.Discard())

	require.NoError(t, p.PublishUserUpdated(context.Background(), sampleUser(), "fullName", "username"))

	require.Len(t, w.sent, 1)
	var data UserUpdatedData
	require.NoError(t, json.Unmarshal(w.sent[0].event.Data, &data))
	assert.Equal(t, []string{"fullName", "username"}, data.Changed)
}

func TestProducer_PublishPasswordChanged(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducer(w, logger.Discard())

	require.NoError(t, p.PublishPasswordChanged(context.Background(), "u1"))

	require.Len(t, w.sent, 1)
	assert.Equal(t, TopicUserPasswordChanged, w.sent[0].topic)
	assert.JSONEq(t, `{"userId":"u1"}`, string(w.sent[0].event.Data))
	assert.NotContains(t, string(w.sent[0].event.Data), "password\"")
}

func TestProducer_WriterError(t *testing.T) {
	p := NewProducer(&recordingWriter{err: errors.New("broker down")}, logger.Discard())

	err := p.PublishPasswordChanged(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish videotube.user.password_changed event")
	assert.Contains(t, err.Error(), "broker down")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	ctx := context.Background()

	assert.NoError(t, p.PublishUserRegistered(ctx, sampleUser()))
	assert.NoError(t, p.PublishUserUpdated(ctx, sampleUser(), "avatar"))
	assert.NoError(t, p.PublishPasswordChanged(ctx, "u1"))
}

var _ Publisher = (*Producer)(nil)
var _ Writer = (*pkgkafka.Producer)(nil)
