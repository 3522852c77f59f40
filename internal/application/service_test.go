package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	"github.com/shareloop/service-booking/internal/repository/memory"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu       sync.Mutex
	bookings []BookingDTO
	items    []ItemDTO
}

func (n *recordingNotifier) BookingUpdated(_ context.Context, b BookingDTO) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, b)
}

func (n *recordingNotifier) ItemUpdated(_ context.Context, i ItemDTO) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, i)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.bookings), len(n.items)
}

// flakyItems fails availability writes while broken is set.
type flakyItems struct {
	*memory.ItemRepository
	broken bool
}

func (f *flakyItems) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if f.broken {
		return errors.New("connection reset")
	}
	return f.ItemRepository.SetAvailability(ctx, id, available)
}

type fixture struct {
	bookings *memory.BookingRepository
	items    *flakyItems
	users    *memory.UserRepository
	notifier *recordingNotifier
	svc      *BookingService
	itemSvc  *ItemService
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings: memory.NewBookingRepository(),
		items:    &flakyItems{ItemRepository: memory.NewItemRepository()},
		users:    memory.NewUserRepository(),
		notifier: &recordingNotifier{},
		now:      fixedNow,
	}
	clock := func() time.Time { return f.now }
	v := validation.New(validation.WithClock(clock))
	log := zap.NewNop()

	f.svc = NewBookingService(f.bookings, f.items, f.users, bookingDomain.NewDailyRatePricingStrategy(), v, f.notifier, log)
	f.svc.now = clock
	f.itemSvc = NewItemService(f.items, f.bookings, f.users, v, f.notifier, log)
	return f
}

func user() auth.Caller { return auth.NewCaller(uuid.New(), auth.RoleUser) }

func (f *fixture) seedItem(t *testing.T, owner auth.Caller, rate *int64) *itemDomain.Item {
	t.Helper()
	it, err := itemDomain.NewItem(owner.UserID, "Camping stove", "", "outdoor", rate, "USD")
	require.NoError(t, err)
	require.NoError(t, f.items.Save(context.Background(), it))
	require.NoError(t, f.users.Upsert(context.Background(), userDomain.NewUser(owner.UserID, "Owner", "o@example.com", fixedNow)))
	return it
}

func (f *fixture) request(itemID uuid.UUID, startOffsetDays, lengthDays int) CreateBookingRequest {
	start := f.now.AddDate(0, 0, startOffsetDays)
	return CreateBookingRequest{
		ItemID:    itemID.String(),
		StartDate: start,
		EndDate:   start.AddDate(0, 0, lengthDays),
	}
}

// pendingBooking creates a booking for a fresh borrower starting tomorrow.
func (f *fixture) pendingBooking(t *testing.T, it *itemDomain.Item) *BookingDTO {
	t.Helper()
	bk, err := f.svc.CreateBooking(context.Background(), user(), f.request(it.ID(), 1, 2))
	require.NoError(t, err)
	return bk
}

func (f *fixture) itemAvailable(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	it, err := f.items.FindByID(context.Background(), id)
	require.NoError(t, err)
	return it.IsAvailable()
}

func rate(v int64) *int64 { return &v }
