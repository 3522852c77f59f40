package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shareloop/service-booking/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userCall struct {
	op   string
	id   uuid.UUID
	name string
	at   time.Time
}

type fakeRecorder struct {
	calls []userCall
	err   error
}

func (r *fakeRecorder) RecordUser(_ context.Context, id uuid.UUID, displayName, _ string, at time.Time) error {
	r.calls = append(r.calls, userCall{op: "record", id: id, name: displayName, at: at})
	return r.err
}

func (r *fakeRecorder) RemoveUser(_ context.Context, id uuid.UUID, at time.Time) error {
	r.calls = append(r.calls, userCall{op: "remove", id: id, at: at})
	return r.err
}

func userMessage(t *testing.T, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-identity", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Value: raw}
}

func TestUserEventConsumer_HandleMessage(t *testing.T) {
	rec := &fakeRecorder{}
	c := &UserEventConsumer{users: rec, logger: zap.NewNop()}
	ctx := context.Background()
	id := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, c.handleMessage(ctx, userMessage(t, UserRegistered, UserEvent{UserID: id, DisplayName: "Ana", OccurredAt: at})))
	require.NoError(t, c.handleMessage(ctx, userMessage(t, UserDeleted, UserEvent{UserID: id, OccurredAt: at.Add(time.Hour)})))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, userCall{op: "record", id: id, name: "Ana", at: at}, rec.calls[0])
	assert.Equal(t, "remove", rec.calls[1].op)
	assert.Equal(t, at.Add(time.Hour), rec.calls[1].at)
}

func TestUserEventConsumer_FallsBackToEnvelopeTime(t *testing.T) {
	rec := &fakeRecorder{}
	c := &UserEventConsumer{users: rec, logger: zap.NewNop()}

	require.NoError(t, c.handleMessage(context.Background(), userMessage(t, UserUpdated, UserEvent{UserID: uuid.New()})))
	require.Len(t, rec.calls, 1)
	assert.False(t, rec.calls[0].at.IsZero())
}

func TestUserEventConsumer_SkipsWhatItCannotUse(t *testing.T) {
	rec := &fakeRecorder{}
	c := &UserEventConsumer{users: rec, logger: zap.NewNop()}
	ctx := context.Background()

	assert.NoError(t, c.handleMessage(ctx, kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.handleMessage(ctx, userMessage(t, "user.logged_in", UserEvent{UserID: uuid.New()})))
	assert.NoError(t, c.handleMessage(ctx, userMessage(t, UserRegistered, map[string]string{"user_id": "nope"})))
	assert.NoError(t, c.handleMessage(ctx, userMessage(t, UserRegistered, UserEvent{})))
	assert.Empty(t, rec.calls)
}

func TestUserEventConsumer_ReturnsStoreFailures(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	c := &UserEventConsumer{users: rec, logger: zap.NewNop()}

	err := c.handleMessage(context.Background(), userMessage(t, UserRegistered, UserEvent{UserID: uuid.New()}))
	assert.Error(t, err)
}
