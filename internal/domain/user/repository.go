package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository stores the user directory projection.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Upsert inserts or replaces the user. Older snapshots never overwrite newer ones.
	Upsert(ctx context.Context, u *User) error
}
