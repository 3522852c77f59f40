package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	"github.com/shareloop/service-booking/pkg/domain"
)

// UserRepository is a mutex-guarded user directory.
type UserRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*userDomain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: make(map[uuid.UUID]*userDomain.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return userDomain.Reconstruct(u.ID(), u.DisplayName(), u.Email(), u.Status(), u.UpdatedAt()), nil
}

func (r *UserRepository) Upsert(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.rows[u.ID()]; ok && stored.UpdatedAt().After(u.UpdatedAt()) {
		return nil
	}
	r.rows[u.ID()] = userDomain.Reconstruct(u.ID(), u.DisplayName(), u.Email(), u.Status(), u.UpdatedAt())
	return nil
}
