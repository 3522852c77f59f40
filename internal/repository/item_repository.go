package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
	"github.com/shareloop/service-booking/pkg/database"
	"github.com/shareloop/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// ItemModel is the GORM model for the items table.
type ItemModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Title          string    `gorm:"type:varchar(200);not null"`
	Description    string    `gorm:"type:text"`
	Category       string    `gorm:"type:varchar(100);index"`
	DailyRateCents *int64    `gorm:""`
	Currency       string    `gorm:"type:varchar(3);not null;default:'USD'"`
	IsAvailable    bool      `gorm:"not null;default:true;index"`
	Version        int64     `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ItemModel) TableName() string { return "items" }

// GormItemRepository implements ItemRepository using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	var model ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Item", id.String())
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return toItemDomain(&model), nil
}

func (r *GormItemRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*itemDomain.Item, int64, error) {
	return r.findPage(ctx, r.db.Where("owner_id = ?", ownerID), page, limit)
}

func (r *GormItemRepository) List(ctx context.Context, availableOnly bool, page, limit int) ([]*itemDomain.Item, int64, error) {
	scope := r.db
	if availableOnly {
		scope = scope.Where("is_available = ?", true)
	}
	return r.findPage(ctx, scope, page, limit)
}

func (r *GormItemRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*itemDomain.Item, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&ItemModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var models []ItemModel
	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	items := make([]*itemDomain.Item, len(models))
	for i := range models {
		items[i] = toItemDomain(&models[i])
	}
	return items, total, nil
}

func (r *GormItemRepository) Save(ctx context.Context, it *itemDomain.Item) error {
	if err := r.db.WithContext(ctx).Create(toItemModel(it)).Error; err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

// Update writes the listing fields with an optimistic version check. is_available is
// deliberately left out of the column set.
func (r *GormItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ? AND version = ?", it.ID(), it.Version()-1).
		Updates(map[string]interface{}{
			"title":            it.Title(),
			"description":      it.Description(),
			"category":         it.Category(),
			"daily_rate_cents": it.DailyRateCents(),
			"version":          it.Version(),
			"updated_at":       it.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("item was modified by another transaction")
	}
	return nil
}

func (r *GormItemRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	result := r.db.WithContext(ctx).
		Model(&ItemModel{}).
		Where("id = ?", id).
		Update("is_available", available)
	if result.Error != nil {
		return fmt.Errorf("failed to set item availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Item", id.String())
	}
	return nil
}

func (r *GormItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ItemModel{})
	if result.Error != nil {
		if database.IsForeignKeyViolation(result.Error) {
			return domain.NewConflictError("item has bookings and cannot be deleted")
		}
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Item", id.String())
	}
	return nil
}

func toItemModel(it *itemDomain.Item) *ItemModel {
	return &ItemModel{
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

func toItemDomain(m *ItemModel) *itemDomain.Item {
	return itemDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Title, m.Description, m.Category,
		m.DailyRateCents,
		m.Currency,
		m.IsAvailable,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
