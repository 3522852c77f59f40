package events

import (
	"context"
	"fmt"

	"github.com/shareloop/service-booking/pkg/kafka"
)

// TopicBookingEvents carries booking.updated and item.updated events.
const TopicBookingEvents = "booking.events"

const eventSource = "service-booking"

// EventPublisher is the part of kafka.Producer the sink needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, ce kafka.CloudEvent) error
}

// KafkaSink publishes events as CloudEvents keyed by the aggregate ID.
type KafkaSink struct {
	publisher EventPublisher
	topic     string
}

// NewKafkaSink creates a KafkaSink writing to TopicBookingEvents.
func NewKafkaSink(publisher EventPublisher) *KafkaSink {
	return &KafkaSink{publisher: publisher, topic: TopicBookingEvents}
}

// Publish implements Sink.
func (s *KafkaSink) Publish(ctx context.Context, evt Event) error {
	ce, err := kafka.NewCloudEvent(eventSource, evt.Type, evt.Data)
	if err != nil {
		return err
	}
	if err := s.publisher.PublishEvent(ctx, s.topic, ce.WithSubject(evt.Subject.String())); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}
