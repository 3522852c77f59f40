package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shareloop/service-booking/pkg/kafka"
	"go.uber.org/zap"
)

// Topic and event types published by the identity service.
const (
	TopicUserEvents = "user.events"

	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

// UserEvent is the payload of every user.* event.
type UserEvent struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// UserRecorder applies user changes to the local directory.
type UserRecorder interface {
	RecordUser(ctx context.Context, id uuid.UUID, displayName, email string, at time.Time) error
	RemoveUser(ctx context.Context, id uuid.UUID, at time.Time) error
}

// UserEventConsumer listens to identity events and keeps the user directory current.
type UserEventConsumer struct {
	consumer *kafka.Consumer
	users    UserRecorder
	logger   *zap.Logger
}

// NewUserEventConsumer creates a new UserEventConsumer.
func NewUserEventConsumer(
	brokers []string,
	groupID string,
	users UserRecorder,
	logger *zap.Logger,
) *UserEventConsumer {
	return &UserEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, TopicUserEvents, logger),
		users:    users,
		logger:   logger,
	}
}

// Start begins consuming user events. This blocks until the context is cancelled.
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *UserEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *UserEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from user topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch ce.Type {
	case UserRegistered, UserUpdated, UserDeleted:
	default:
		c.logger.Debug("ignoring unhandled user event type", zap.String("type", ce.Type))
		return nil
	}

	var evt UserEvent
	if err := ce.ParseData(&evt); err != nil || evt.UserID == uuid.Nil {
		c.logger.Error("failed to parse UserEvent data",
			zap.String("type", ce.Type),
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	at := evt.OccurredAt
	if at.IsZero() {
		at = ce.Time
	}

	if ce.Type == UserDeleted {
		err = c.users.RemoveUser(ctx, evt.UserID, at)
	} else {
		err = c.users.RecordUser(ctx, evt.UserID, evt.DisplayName, evt.Email, at)
	}
	if err != nil {
		c.logger.Error("failed to apply user event",
			zap.String("type", ce.Type),
			zap.String("user_id", evt.UserID.String()),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("user event applied",
		zap.String("type", ce.Type),
		zap.String("user_id", evt.UserID.String()),
	)
	return nil
}
