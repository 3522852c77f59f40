package application

import (
	"context"
	"testing"

	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_ActivateThenExpire(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := user()
	it := f.seedItem(t, owner, rate(10))
	pending := f.pendingBooking(t, it)
	_, err := f.svc.ApproveBooking(ctx, owner, pending.ID, true)
	require.NoError(t, err)

	n, err := f.svc.ActivateDueBookings(ctx, fixedNow)
	require.NoError(t, err)
	assert.Zero(t, n, "window has not started")

	started := pending.StartDate
	n, err = f.svc.ActivateDueBookings(ctx, started)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.ActivateDueBookings(ctx, started)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.ExpireOverdueBookings(ctx, pending.EndDate)
	require.NoError(t, err)
	assert.Zero(t, n, "end date itself is not overdue")

	n, err = f.svc.ExpireOverdueBookings(ctx, pending.EndDate.Add(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.bookings.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusExpired, stored.Status())
	assert.Equal(t, int64(4), stored.Version())
	assert.False(t, f.itemAvailable(t, it.ID()), "expiry leaves the item with the borrower")

	nb, _ := f.notifier.counts()
	assert.Equal(t, 4, nb)
}

func TestSweep_SkipsUndecidedBookings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	it := f.seedItem(t, user(), rate(10))
	pending := f.pendingBooking(t, it)

	n, err := f.svc.ActivateDueBookings(ctx, pending.EndDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.svc.ExpireOverdueBookings(ctx, pending.EndDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)
}

// An approved booking whose whole window has passed is activated on one pass and expired on the next.
func TestSweep_PastWindowTakesTwoPasses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := user()
	it := f.seedItem(t, owner, rate(10))
	pending := f.pendingBooking(t, it)
	_, err := f.svc.ApproveBooking(ctx, owner, pending.ID, true)
	require.NoError(t, err)

	later := pending.EndDate.AddDate(0, 0, 3)

	expired, err := f.svc.ExpireOverdueBookings(ctx, later)
	require.NoError(t, err)
	activated, err := f.svc.ActivateDueBookings(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
	assert.Equal(t, 1, activated)

	expired, err = f.svc.ExpireOverdueBookings(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}

func TestSweep_CompletedBookingIsLeftAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := user()
	it := f.seedItem(t, owner, rate(10))
	pending := f.pendingBooking(t, it)
	_, err := f.svc.ApproveBooking(ctx, owner, pending.ID, true)
	require.NoError(t, err)
	_, err = f.svc.CompleteBooking(ctx, owner, pending.ID)
	require.NoError(t, err)

	later := pending.EndDate.AddDate(0, 0, 3)
	n, err := f.svc.ActivateDueBookings(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.bookings.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, stored.Status())
}
