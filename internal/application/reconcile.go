package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	"go.uber.org/zap"
)

// ExpireOverdueBookings moves active bookings whose window ended before now to expired and
// returns how many changed.
func (s *BookingService) ExpireOverdueBookings(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.FindOverdueActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue bookings: %w", err)
	}
	return s.sweep(ctx, due, bookingDomain.StatusActive, bookingDomain.StatusExpired, now, func(bk *bookingDomain.Booking) error {
		return bk.Expire(now)
	})
}

// ActivateDueBookings moves approved bookings whose window has started to active and
// returns how many changed.
func (s *BookingService) ActivateDueBookings(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.FindDueApproved(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load due bookings: %w", err)
	}
	return s.sweep(ctx, due, bookingDomain.StatusApproved, bookingDomain.StatusActive, now, func(bk *bookingDomain.Booking) error {
		return bk.Activate(now)
	})
}

func (s *BookingService) sweep(
	ctx context.Context,
	candidates []*bookingDomain.Booking,
	from, to bookingDomain.BookingStatus,
	now time.Time,
	apply func(*bookingDomain.Booking) error,
) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	byID := make(map[uuid.UUID]*bookingDomain.Booking, len(candidates))
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, bk := range candidates {
		if err := apply(bk); err != nil {
			s.logger.Warn("skipping booking in sweep",
				zap.String("booking_id", bk.ID().String()),
				zap.String("to", to.String()),
				zap.Error(err),
			)
			continue
		}
		byID[bk.ID()] = bk
		ids = append(ids, bk.ID())
	}
	if len(ids) == 0 {
		return 0, nil
	}

	changed, err := s.repo.TransitionStatus(ctx, ids, from, to, now)
	if err != nil {
		return 0, fmt.Errorf("failed to transition bookings from %s to %s: %w", from, to, err)
	}

	for _, id := range changed {
		bk, ok := byID[id]
		if !ok {
			continue
		}
		bk.IncrementVersion()
		s.notifier.BookingUpdated(ctx, toBookingDTO(bk))
	}
	return len(changed), nil
}
