package user

import (
	"time"

	"github.com/google/uuid"
)

// Status is the directory state of a platform user.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// User is the local projection of a platform account. Accounts are owned by the identity
// service; this copy only answers "does this user still exist".
type User struct {
	id          uuid.UUID
	displayName string
	email       string
	status      Status
	updatedAt   time.Time
}

func NewUser(id uuid.UUID, displayName, email string, at time.Time) *User {
	return &User{id: id, displayName: displayName, email: email, status: StatusActive, updatedAt: at.UTC()}
}

func Reconstruct(id uuid.UUID, displayName, email string, status Status, updatedAt time.Time) *User {
	return &User{id: id, displayName: displayName, email: email, status: status, updatedAt: updatedAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) DisplayName() string  { return u.displayName }
func (u *User) Email() string        { return u.email }
func (u *User) Status() Status       { return u.status }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// Exists is false once the account has been deleted upstream.
func (u *User) Exists() bool { return u.status == StatusActive }

// MarkDeleted tombstones the user.
func (u *User) MarkDeleted(at time.Time) {
	u.status = StatusDeleted
	u.updatedAt = at.UTC()
}
