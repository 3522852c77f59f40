package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	"github.com/shareloop/service-booking/pkg/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserModel is the GORM model for the local user directory.
type UserModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string    `gorm:"type:varchar(200)"`
	Email       string    `gorm:"type:varchar(320)"`
	Status      string    `gorm:"type:varchar(20);not null;default:'active'"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (UserModel) TableName() string { return "directory_users" }

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return userDomain.Reconstruct(model.ID, model.DisplayName, model.Email, userDomain.Status(model.Status), model.UpdatedAt), nil
}

// Upsert inserts the user or overwrites a stored row that is not newer.
func (r *GormUserRepository) Upsert(ctx context.Context, u *userDomain.User) error {
	model := UserModel{
		ID:          u.ID(),
		DisplayName: u.DisplayName(),
		Email:       u.Email(),
		Status:      string(u.Status()),
		UpdatedAt:   u.UpdatedAt(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "email", "status", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "directory_users.updated_at <= excluded.updated_at"},
		}},
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
