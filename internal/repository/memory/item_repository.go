package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
	"github.com/shareloop/service-booking/pkg/domain"
)

// ItemRepository is a mutex-guarded map of item snapshots.
type ItemRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*itemDomain.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{rows: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *ItemRepository) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("Item", id.String())
	}
	return cloneItem(it, it.IsAvailable()), nil
}

func (r *ItemRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID, page, limit int) ([]*itemDomain.Item, int64, error) {
	all := r.filter(func(it *itemDomain.Item) bool { return it.OwnerID() == ownerID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *ItemRepository) List(_ context.Context, availableOnly bool, page, limit int) ([]*itemDomain.Item, int64, error) {
	all := r.filter(func(it *itemDomain.Item) bool { return !availableOnly || it.IsAvailable() })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *ItemRepository) Save(_ context.Context, it *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rows[it.ID()]; exists {
		return domain.NewConflictError("item already exists")
	}
	r.rows[it.ID()] = cloneItem(it, it.IsAvailable())
	return nil
}

// Update stores listing fields but keeps the stored availability flag.
func (r *ItemRepository) Update(_ context.Context, it *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[it.ID()]
	if !ok || stored.Version() != it.Version()-1 {
		return domain.NewConflictError("item was modified by another transaction")
	}
	r.rows[it.ID()] = cloneItem(it, stored.IsAvailable())
	return nil
}

func (r *ItemRepository) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[id]
	if !ok {
		return domain.NewNotFoundError("Item", id.String())
	}
	stored.SetAvailable(available)
	return nil
}

func (r *ItemRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return domain.NewNotFoundError("Item", id.String())
	}
	delete(r.rows, id)
	return nil
}

func (r *ItemRepository) filter(match func(*itemDomain.Item) bool) []*itemDomain.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*itemDomain.Item
	for _, it := range r.rows {
		if match(it) {
			out = append(out, cloneItem(it, it.IsAvailable()))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func cloneItem(it *itemDomain.Item, available bool) *itemDomain.Item {
	var rate *int64
	if it.DailyRateCents() != nil {
		v := *it.DailyRateCents()
		rate = &v
	}
	return itemDomain.Reconstruct(
		it.ID(), it.OwnerID(),
		it.Title(), it.Description(), it.Category(),
		rate,
		it.Currency(),
		available,
		it.Version(),
		it.CreatedAt(), it.UpdatedAt(),
	)
}
