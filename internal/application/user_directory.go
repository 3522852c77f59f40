package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	"github.com/shareloop/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// UserDirectory keeps the local user projection in step with the identity service.
type UserDirectory struct {
	repo   userDomain.UserRepository
	logger *zap.Logger
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(repo userDomain.UserRepository, logger *zap.Logger) *UserDirectory {
	return &UserDirectory{repo: repo, logger: logger}
}

// RecordUser stores a registered or updated account.
func (d *UserDirectory) RecordUser(ctx context.Context, id uuid.UUID, displayName, email string, at time.Time) error {
	if id == uuid.Nil {
		return domain.NewValidationError("user ID is required")
	}
	if err := d.repo.Upsert(ctx, userDomain.NewUser(id, displayName, email, at)); err != nil {
		return fmt.Errorf("failed to record user: %w", err)
	}
	d.logger.Debug("user recorded", zap.String("user_id", id.String()))
	return nil
}

// RemoveUser tombstones an account. Unknown users are recorded as deleted so a late
// registration event cannot resurrect them.
func (d *UserDirectory) RemoveUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return domain.NewValidationError("user ID is required")
	}

	u, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if !domain.IsNotFound(err) {
			return fmt.Errorf("failed to load user: %w", err)
		}
		u = userDomain.NewUser(id, "", "", at)
	}
	u.MarkDeleted(at)

	if err := d.repo.Upsert(ctx, u); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	d.logger.Info("user removed from directory", zap.String("user_id", id.String()))
	return nil
}
