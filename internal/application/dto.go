package application

import (
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
)

// CreateBookingRequest holds the data needed to request a booking.
type CreateBookingRequest struct {
	ItemID    string    `json:"item_id" validate:"required,uuid"`
	StartDate time.Time `json:"start_date" validate:"required,notpast"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// DecideBookingRequest is the body of the approve endpoint.
type DecideBookingRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID  `json:"id"`
	BookingNumber    string     `json:"booking_number"`
	ItemID           uuid.UUID  `json:"item_id"`
	BorrowerID       uuid.UUID  `json:"borrower_id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	Status           string     `json:"status"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	TotalPriceCents  int64      `json:"total_price_cents"`
	Currency         string     `json:"currency"`
	RequestedAt      time.Time  `json:"requested_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ActualReturnDate *time.Time `json:"actual_return_date,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Version          int64      `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// CreateItemRequest is the request DTO for listing an item.
type CreateItemRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	Category       string `json:"category" validate:"max=100"`
	DailyRateCents *int64 `json:"daily_rate_cents" validate:"omitempty,min=0"`
	Currency       string `json:"currency" validate:"omitempty,len=3"`
}

// UpdateItemRequest is the request DTO for editing a listing. Empty fields are left unchanged.
type UpdateItemRequest struct {
	Title          string `json:"title" validate:"max=200"`
	Description    string `json:"description" validate:"max=2000"`
	Category       string `json:"category" validate:"max=100"`
	DailyRateCents *int64 `json:"daily_rate_cents" validate:"omitempty,min=0"`
}

// ItemDTO is the API response representation of an item.
type ItemDTO struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	DailyRateCents *int64    `json:"daily_rate_cents,omitempty"`
	Currency       string    `json:"currency"`
	IsAvailable    bool      `json:"is_available"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		ItemID:           bk.ItemID(),
		BorrowerID:       bk.BorrowerID(),
		OwnerID:          bk.OwnerID(),
		Status:           string(bk.Status()),
		StartDate:        bk.StartDate(),
		EndDate:          bk.EndDate(),
		TotalPriceCents:  bk.TotalPriceCents(),
		Currency:         bk.Currency(),
		RequestedAt:      bk.RequestedAt(),
		ApprovedAt:       bk.ApprovedAt(),
		ActualReturnDate: bk.ActualReturnDate(),
		CompletedAt:      bk.CompletedAt(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func toItemDTO(it *itemDomain.Item) ItemDTO {
	return ItemDTO{
		ID:             it.ID(),
		OwnerID:        it.OwnerID(),
		Title:          it.Title(),
		Description:    it.Description(),
		Category:       it.Category(),
		DailyRateCents: it.DailyRateCents(),
		Currency:       it.Currency(),
		IsAvailable:    it.IsAvailable(),
		Version:        it.Version(),
		CreatedAt:      it.CreatedAt(),
		UpdatedAt:      it.UpdatedAt(),
	}
}
