package item

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Item, int64, error)
	List(ctx context.Context, availableOnly bool, page, limit int) ([]*Item, int64, error)
	Save(ctx context.Context, item *Item) error
	Update(ctx context.Context, item *Item) error
	// SetAvailability writes only the availability column; repeating it is harmless.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}
