package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByBorrowerID retrieves bookings requested by a borrower with pagination.
	FindByBorrowerID(ctx context.Context, borrowerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByOwnerID retrieves bookings on items owned by a user with pagination.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CountByItemID returns how many bookings reference an item.
	CountByItemID(ctx context.Context, itemID uuid.UUID) (int64, error)

	// ExistsHeldByItemID reports whether a booking other than excludeID currently holds the item.
	ExistsHeldByItemID(ctx context.Context, itemID, excludeID uuid.UUID) (bool, error)

	// FindOverdueActive returns active bookings whose end date is before now.
	FindOverdueActive(ctx context.Context, now time.Time) ([]*Booking, error)

	// FindDueApproved returns approved bookings whose start date is at or before now.
	FindDueApproved(ctx context.Context, now time.Time) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// TransitionStatus moves every listed booking still in status from to status to, in one
	// predicate update, and returns the IDs that changed. Rows whose status moved on
	// concurrently are left untouched.
	TransitionStatus(ctx context.Context, ids []uuid.UUID, from, to BookingStatus, at time.Time) ([]uuid.UUID, error)
}
