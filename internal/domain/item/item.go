package item

import (
	"time"

	"github.com/google/uuid"
	"github.com/shareloop/service-booking/pkg/domain"
)

// Item is the aggregate root for a listed item.
type Item struct {
	id             uuid.UUID
	ownerID        uuid.UUID
	title          string
	description    string
	category       string
	dailyRateCents *int64
	currency       string
	isAvailable    bool
	version        int64
	createdAt      time.Time
	updatedAt      time.Time
}

// NewItem creates a new available item with validated fields.
func NewItem(
	ownerID uuid.UUID,
	title, description, category string,
	dailyRateCents *int64,
	currency string,
) (*Item, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if title == "" {
		return nil, domain.NewFieldError("title", "is required")
	}
	if dailyRateCents != nil && *dailyRateCents < 0 {
		return nil, domain.NewFieldError("daily_rate_cents", "must not be negative")
	}
	if currency == "" {
		currency = domain.CurrencyUSD
	}

	now := time.Now().UTC()
	return &Item{
		id:             uuid.New(),
		ownerID:        ownerID,
		title:          title,
		description:    description,
		category:       category,
		dailyRateCents: dailyRateCents,
		currency:       currency,
		isAvailable:    true,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds an Item from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	title, description, category string,
	dailyRateCents *int64,
	currency string,
	isAvailable bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Item {
	return &Item{
		id:             id,
		ownerID:        ownerID,
		title:          title,
		description:    description,
		category:       category,
		dailyRateCents: dailyRateCents,
		currency:       currency,
		isAvailable:    isAvailable,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (i *Item) ID() uuid.UUID          { return i.id }
func (i *Item) OwnerID() uuid.UUID     { return i.ownerID }
func (i *Item) Title() string          { return i.title }
func (i *Item) Description() string    { return i.description }
func (i *Item) Category() string       { return i.category }
func (i *Item) DailyRateCents() *int64 { return i.dailyRateCents }
func (i *Item) Currency() string       { return i.currency }
func (i *Item) IsAvailable() bool      { return i.isAvailable }
func (i *Item) Version() int64         { return i.version }
func (i *Item) CreatedAt() time.Time   { return i.createdAt }
func (i *Item) UpdatedAt() time.Time   { return i.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the item belongs to the given user.
func (i *Item) IsOwnedBy(ownerID uuid.UUID) bool {
	return i.ownerID == ownerID
}

// Update applies partial updates to the listing. Availability is not touched here.
func (i *Item) Update(title, description, category string, dailyRateCents *int64) error {
	if dailyRateCents != nil && *dailyRateCents < 0 {
		return domain.NewFieldError("daily_rate_cents", "must not be negative")
	}
	if title != "" {
		i.title = title
	}
	if description != "" {
		i.description = description
	}
	if category != "" {
		i.category = category
	}
	if dailyRateCents != nil {
		i.dailyRateCents = dailyRateCents
	}
	i.version++
	i.updatedAt = time.Now().UTC()
	return nil
}

// SetAvailable records the availability flag. It is idempotent.
func (i *Item) SetAvailable(available bool) {
	if i.isAvailable == available {
		return
	}
	i.isAvailable = available
	i.updatedAt = time.Now().UTC()
}
