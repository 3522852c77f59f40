package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shareloop/service-booking/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ErrBookingNumberTaken is returned by Save when another booking already uses the number.
var ErrBookingNumberTaken = errors.New("booking number already taken")

// Caller-facing guard messages.
const (
	MsgOnlyOwnerDecides   = "only the owner may approve/reject"
	MsgOnlyPendingDecided = "only pending bookings can be approved or rejected"
	MsgOnlyOwnerCompletes = "only the owner may complete a booking"
	MsgOnlyHeldCompleted  = "only approved or active bookings can be completed"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	itemID        uuid.UUID
	borrowerID    uuid.UUID
	ownerID       uuid.UUID
	status        BookingStatus

	startDate time.Time
	endDate   time.Time

	totalPriceCents int64
	currency        string

	requestedAt      time.Time
	approvedAt       *time.Time
	actualReturnDate *time.Time
	completedAt      *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// RenewNumber draws a fresh booking number. Only meaningful before the booking is saved.
func (b *Booking) RenewNumber() error {
	number, err := generateBookingNumber()
	if err != nil {
		return err
	}
	b.bookingNumber = number
	return nil
}

// NewBooking creates a new Booking aggregate with status=pending.
// ownerID is copied from the item so guards never need to load it.
func NewBooking(
	itemID uuid.UUID,
	borrowerID uuid.UUID,
	ownerID uuid.UUID,
	startDate time.Time,
	endDate time.Time,
	totalPriceCents int64,
	currency string,
	now time.Time,
) (*Booking, error) {
	if itemID == uuid.Nil {
		return nil, domain.NewFieldError("item_id", "is required")
	}
	if borrowerID == uuid.Nil {
		return nil, domain.NewValidationError("borrower ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewFieldError("owner_id", "is required")
	}
	if !endDate.After(startDate) {
		return nil, domain.NewFieldError("end_date", "must be after start_date")
	}
	if totalPriceCents < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		itemID:          itemID,
		borrowerID:      borrowerID,
		ownerID:         ownerID,
		status:          StatusPending,
		startDate:       startDate.UTC(),
		endDate:         endDate.UTC(),
		totalPriceCents: totalPriceCents,
		currency:        currency,
		requestedAt:     now,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	itemID uuid.UUID,
	borrowerID uuid.UUID,
	ownerID uuid.UUID,
	status BookingStatus,
	startDate time.Time,
	endDate time.Time,
	totalPriceCents int64,
	currency string,
	requestedAt time.Time,
	approvedAt *time.Time,
	actualReturnDate *time.Time,
	completedAt *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		bookingNumber:    bookingNumber,
		itemID:           itemID,
		borrowerID:       borrowerID,
		ownerID:          ownerID,
		status:           status,
		startDate:        startDate,
		endDate:          endDate,
		totalPriceCents:  totalPriceCents,
		currency:         currency,
		requestedAt:      requestedAt,
		approvedAt:       approvedAt,
		actualReturnDate: actualReturnDate,
		completedAt:      completedAt,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ItemID returns the booked item's ID.
func (b *Booking) ItemID() uuid.UUID { return b.itemID }

// BorrowerID returns the requesting user's ID.
func (b *Booking) BorrowerID() uuid.UUID { return b.borrowerID }

// OwnerID returns the item owner's user ID.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// StartDate returns the start of the requested window.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the end of the requested window.
func (b *Booking) EndDate() time.Time { return b.endDate }

// TotalPriceCents returns the price fixed at creation.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// RequestedAt returns when the booking was requested.
func (b *Booking) RequestedAt() time.Time { return b.requestedAt }

// ApprovedAt returns the approval time, or nil if never approved.
func (b *Booking) ApprovedAt() *time.Time { return b.approvedAt }

// ActualReturnDate returns when the item was returned, or nil.
func (b *Booking) ActualReturnDate() *time.Time { return b.actualReturnDate }

// CompletedAt returns the completion time, or nil.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsParticipant reports whether userID is the borrower or the owner.
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return userID == b.borrowerID || userID == b.ownerID
}

// IsDueForActivation reports whether an approved booking's window has started.
func (b *Booking) IsDueForActivation(now time.Time) bool {
	return b.status == StatusApproved && !b.startDate.After(now)
}

// IsOverdue reports whether an active booking's window has ended.
func (b *Booking) IsOverdue(now time.Time) bool {
	return b.status == StatusActive && b.endDate.Before(now)
}

// --- Behavior ---

// Approve transitions the booking from pending to approved.
func (b *Booking) Approve(callerID uuid.UUID, now time.Time) error {
	if err := b.checkDecision(callerID); err != nil {
		return err
	}
	now = now.UTC()
	b.status = StatusApproved
	b.approvedAt = &now
	b.updatedAt = now
	return nil
}

// Reject transitions the booking from pending to rejected.
func (b *Booking) Reject(callerID uuid.UUID, now time.Time) error {
	if err := b.checkDecision(callerID); err != nil {
		return err
	}
	b.status = StatusRejected
	b.updatedAt = now.UTC()
	return nil
}

func (b *Booking) checkDecision(callerID uuid.UUID) error {
	if callerID != b.ownerID {
		return domain.NewForbiddenError(MsgOnlyOwnerDecides)
	}
	if b.status != StatusPending {
		return domain.NewInvalidStateMessage(MsgOnlyPendingDecided)
	}
	return nil
}

// Activate transitions an approved booking to active once its window has started.
func (b *Booking) Activate(now time.Time) error {
	if !b.status.CanTransitionTo(StatusActive) {
		return domain.NewInvalidStateError(string(b.status), string(StatusActive))
	}
	if b.startDate.After(now) {
		return domain.NewInvalidStateMessage("booking window has not started")
	}
	b.status = StatusActive
	b.updatedAt = now.UTC()
	return nil
}

// Expire transitions an active booking to expired once its window has ended.
func (b *Booking) Expire(now time.Time) error {
	if !b.status.CanTransitionTo(StatusExpired) {
		return domain.NewInvalidStateError(string(b.status), string(StatusExpired))
	}
	if !b.endDate.Before(now) {
		return domain.NewInvalidStateMessage("booking window has not ended")
	}
	b.status = StatusExpired
	b.updatedAt = now.UTC()
	return nil
}

// Complete marks the item returned. Return date and completion time are the same instant.
func (b *Booking) Complete(callerID uuid.UUID, now time.Time) error {
	if callerID != b.ownerID {
		return domain.NewForbiddenError(MsgOnlyOwnerCompletes)
	}
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateMessage(MsgOnlyHeldCompleted)
	}
	now = now.UTC()
	b.status = StatusCompleted
	b.actualReturnDate = &now
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
