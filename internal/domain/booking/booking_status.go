package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusApproved  BookingStatus = "approved"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusRejected  BookingStatus = "rejected"
	StatusExpired   BookingStatus = "expired"
)

// validTransitions defines the state machine for booking status transitions.
// Cancelled is reserved: no operation moves a booking into it.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusActive, StatusCompleted},
	StatusActive:    {StatusCompleted, StatusExpired},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRejected:  {},
	StatusExpired:   {},
}

// AllStatuses lists every known status in lifecycle order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{
		StatusPending, StatusApproved, StatusActive, StatusCompleted,
		StatusCancelled, StatusRejected, StatusExpired,
	}
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// HoldsItem reports whether a booking in this status keeps its item unavailable.
func (s BookingStatus) HoldsItem() bool {
	return s == StatusApproved || s == StatusActive
}

// HeldStatuses lists the statuses for which HoldsItem is true.
func HeldStatuses() []BookingStatus {
	var out []BookingStatus
	for _, st := range AllStatuses() {
		if st.HoldsItem() {
			out = append(out, st)
		}
	}
	return out
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
