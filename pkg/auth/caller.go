package auth

import "github.com/google/uuid"

// Caller is the identity resolved for the current request. The zero value is anonymous.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller { return Caller{} }

// NewCaller returns an authenticated caller.
func NewCaller(userID uuid.UUID, role Role) Caller {
	return Caller{UserID: userID, Role: role}
}

// Authenticated reports whether an identity was resolved.
func (c Caller) Authenticated() bool { return c.UserID != uuid.Nil }

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Authenticated() && c.Role == RoleAdmin }
