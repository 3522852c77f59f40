package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shareloop/service-booking/internal/application"
	"go.uber.org/zap"
)

// Event types published for observers.
const (
	TypeBookingUpdated = "booking.updated"
	TypeItemUpdated    = "item.updated"
)

const defaultDeliveryTimeout = 5 * time.Second

// Event is one change notification handed to every sink.
type Event struct {
	Type    string
	Subject uuid.UUID
	// Recipients are the users the change concerns directly.
	Recipients []uuid.UUID
	// Broadcast marks events every item-feed subscriber should see.
	Broadcast bool
	Data      interface{}
}

// Sink delivers events to one kind of observer.
type Sink interface {
	Publish(ctx context.Context, evt Event) error
}

// Emitter implements application.Notifier by fanning every change out to its sinks on
// background goroutines. Callers never wait on delivery.
type Emitter struct {
	sinks   []Sink
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

var _ application.Notifier = (*Emitter)(nil)

// NewEmitter creates an Emitter delivering to sinks.
func NewEmitter(logger *zap.Logger, sinks ...Sink) *Emitter {
	return &Emitter{
		sinks:   sinks,
		timeout: defaultDeliveryTimeout,
		logger:  logger,
	}
}

// BookingUpdated notifies the borrower and the owner.
func (e *Emitter) BookingUpdated(ctx context.Context, b application.BookingDTO) {
	e.dispatch(ctx, Event{
		Type:       TypeBookingUpdated,
		Subject:    b.ID,
		Recipients: []uuid.UUID{b.BorrowerID, b.OwnerID},
		Data:       b,
	})
}

// ItemUpdated notifies the owner and the public item feed.
func (e *Emitter) ItemUpdated(ctx context.Context, i application.ItemDTO) {
	e.dispatch(ctx, Event{
		Type:       TypeItemUpdated,
		Subject:    i.ID,
		Recipients: []uuid.UUID{i.OwnerID},
		Broadcast:  true,
		Data:       i,
	})
}

// Wait blocks until in-flight deliveries finish.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

func (e *Emitter) dispatch(ctx context.Context, evt Event) {
	base := context.WithoutCancel(ctx)
	for _, sink := range e.sinks {
		e.wg.Add(1)
		go e.deliver(base, sink, evt)
	}
}

func (e *Emitter) deliver(ctx context.Context, sink Sink, evt Event) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("notification sink panicked",
				zap.String("type", evt.Type),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := sink.Publish(ctx, evt); err != nil {
		e.logger.Warn("failed to deliver notification",
			zap.String("type", evt.Type),
			zap.String("subject", evt.Subject.String()),
			zap.Error(err),
		)
	}
}
