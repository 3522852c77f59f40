// Package memory provides in-process repositories used for local runs and unit tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	"github.com/shareloop/service-booking/pkg/domain"
)

// BookingRepository is a mutex-guarded map of booking snapshots.
type BookingRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*bookingDomain.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{rows: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bk, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk, bk.Status(), bk.Version(), bk.UpdatedAt()), nil
}

func (r *BookingRepository) FindByBorrowerID(_ context.Context, borrowerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(b *bookingDomain.Booking) bool { return b.BorrowerID() == borrowerID }, page, limit)
}

func (r *BookingRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(b *bookingDomain.Booking) bool { return b.OwnerID() == ownerID }, page, limit)
}

func (r *BookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(*bookingDomain.Booking) bool { return true }, page, limit)
}

func (r *BookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, bk := range r.rows {
		counts[bk.Status().String()]++
	}
	return counts, nil
}

func (r *BookingRepository) CountByItemID(_ context.Context, itemID uuid.UUID) (int64, error) {
	matched := r.filter(func(b *bookingDomain.Booking) bool { return b.ItemID() == itemID })
	return int64(len(matched)), nil
}

func (r *BookingRepository) ExistsHeldByItemID(_ context.Context, itemID, excludeID uuid.UUID) (bool, error) {
	held := r.filter(func(b *bookingDomain.Booking) bool {
		return b.ItemID() == itemID && b.ID() != excludeID && b.Status().HoldsItem()
	})
	return len(held) > 0, nil
}

func (r *BookingRepository) FindOverdueActive(_ context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.IsOverdue(now) }), nil
}

func (r *BookingRepository) FindDueApproved(_ context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool { return b.IsDueForActivation(now) }), nil
}

func (r *BookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[bk.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	for _, stored := range r.rows {
		if stored.BookingNumber() == bk.BookingNumber() {
			return bookingDomain.ErrBookingNumberTaken
		}
	}
	r.rows[bk.ID()] = cloneBooking(bk, bk.Status(), bk.Version(), bk.UpdatedAt())
	return nil
}

func (r *BookingRepository) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[bk.ID()]
	if !ok || stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.rows[bk.ID()] = cloneBooking(bk, bk.Status(), bk.Version(), bk.UpdatedAt())
	return nil
}

func (r *BookingRepository) TransitionStatus(
	_ context.Context,
	ids []uuid.UUID,
	from, to bookingDomain.BookingStatus,
	at time.Time,
) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var changed []uuid.UUID
	for _, id := range ids {
		stored, ok := r.rows[id]
		if !ok || stored.Status() != from {
			continue
		}
		r.rows[id] = cloneBooking(stored, to, stored.Version()+1, at)
		changed = append(changed, id)
	}
	return changed, nil
}

func (r *BookingRepository) filter(match func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bookingDomain.Booking
	for _, bk := range r.rows {
		if match(bk) {
			out = append(out, cloneBooking(bk, bk.Status(), bk.Version(), bk.UpdatedAt()))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (r *BookingRepository) page(match func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(match)
	return paginate(all, page, limit), int64(len(all)), nil
}

func cloneBooking(b *bookingDomain.Booking, status bookingDomain.BookingStatus, version int64, updatedAt time.Time) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(),
		b.BookingNumber(),
		b.ItemID(),
		b.BorrowerID(),
		b.OwnerID(),
		status,
		b.StartDate(),
		b.EndDate(),
		b.TotalPriceCents(),
		b.Currency(),
		b.RequestedAt(),
		copyTime(b.ApprovedAt()),
		copyTime(b.ActualReturnDate()),
		copyTime(b.CompletedAt()),
		version,
		b.CreatedAt(),
		updatedAt,
	)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func paginate[T any](all []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return all
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []T{}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
