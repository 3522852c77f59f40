package application

import "context"

// Notifier receives booking and item changes. Implementations must not block the caller
// and must swallow their own delivery failures.
type Notifier interface {
	BookingUpdated(ctx context.Context, booking BookingDTO)
	ItemUpdated(ctx context.Context, item ItemDTO)
}

// RequestValidator checks a request payload and returns field-keyed messages, or nil.
type RequestValidator interface {
	Validate(req interface{}) map[string][]string
}

type nopNotifier struct{}

func (nopNotifier) BookingUpdated(context.Context, BookingDTO) {}
func (nopNotifier) ItemUpdated(context.Context, ItemDTO)       {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
