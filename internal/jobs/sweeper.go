package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Hour

// Reconciler applies time-driven booking transitions.
type Reconciler interface {
	ExpireOverdueBookings(ctx context.Context, now time.Time) (int, error)
	ActivateDueBookings(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically expires overdue bookings and activates bookings whose window has
// started. One pass runs immediately on Start.
type Sweeper struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper. A non-positive interval falls back to DefaultSweepInterval.
func NewSweeper(reconciler Reconciler, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger.Named("sweeper"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the background loop. Calling Start on a running Sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for the current pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs one pass: expiry first, then activation. Each phase is isolated; a failure in
// one does not prevent the other. A booking activated in this pass is expired on a later one.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.phase(ctx, "expire", s.reconciler.ExpireOverdueBookings)

	if ctx.Err() != nil {
		return
	}
	s.phase(ctx, "activate", s.reconciler.ActivateDueBookings)
}

func (s *Sweeper) phase(ctx context.Context, name string, fn func(context.Context, time.Time) (int, error)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep phase panicked",
				zap.String("phase", name),
				zap.Any("panic", r),
			)
		}
	}()

	count, err := fn(ctx, s.now())
	switch {
	case err == nil:
		if count > 0 {
			s.logger.Info("sweep phase applied", zap.String("phase", name), zap.Int("count", count))
		}
	case isCancellation(ctx, err):
		s.logger.Debug("sweep phase interrupted", zap.String("phase", name))
	default:
		s.logger.Error("sweep phase failed", zap.String("phase", name), zap.Error(err))
	}
}

// isCancellation reports errors caused by shutdown. Drivers do not always wrap ctx.Err(),
// so any failure after cancellation counts.
func isCancellation(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}
