package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/domain"
	"go.uber.org/zap"
)

// Field messages returned by CreateBooking.
const (
	MsgItemNotFound    = "item not found"
	MsgItemUnavailable = "item is not available"
	MsgOwnerGone       = "item owner no longer exists"
)

// saveAttempts bounds how often CreateBooking redraws a colliding booking number.
const saveAttempts = 3

// sideEffectTimeout bounds the availability write issued after the booking write.
const sideEffectTimeout = 10 * time.Second

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	items     itemDomain.ItemRepository
	users     userDomain.UserRepository
	pricing   bookingDomain.PricingStrategy
	validator RequestValidator
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewBookingService creates a new BookingService. notifier may be nil.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	pricing bookingDomain.PricingStrategy,
	validator RequestValidator,
	notifier Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		items:     items,
		users:     users,
		pricing:   pricing,
		validator: validator,
		notifier:  notifierOrNop(notifier),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking requests a booking of an item for the calling borrower.
// Checks run in a fixed order and the first failure is returned; nothing is persisted on failure.
func (s *BookingService) CreateBooking(ctx context.Context, caller auth.Caller, req CreateBookingRequest) (*BookingDTO, error) {
	if fields := s.validator.Validate(req); len(fields) > 0 {
		return nil, domain.NewFieldValidationError(fields)
	}
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, domain.NewFieldError("item_id", "must be a valid UUID")
	}

	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewFieldError("item_id", MsgItemNotFound)
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if !it.IsAvailable() {
		return nil, domain.NewFieldError("item_id", MsgItemUnavailable)
	}

	owner, err := s.users.FindByID(ctx, it.OwnerID())
	if err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load item owner: %w", err)
	}
	if owner == nil || !owner.Exists() {
		return nil, domain.NewFieldError("owner_id", MsgOwnerGone)
	}

	priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
		DailyRateCents: it.DailyRateCents(),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(
		it.ID(),
		caller.UserID,
		it.OwnerID(),
		req.StartDate,
		req.EndDate,
		priceCents,
		it.Currency(),
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", it.ID().String()),
		zap.String("borrower_id", caller.UserID.String()),
		zap.Int64("total_price_cents", priceCents),
	)

	result := toBookingDTO(bk)
	s.notifier.BookingUpdated(ctx, result)
	return &result, nil
}

// save persists a new booking, drawing a new booking number when the current one is taken.
func (s *BookingService) save(ctx context.Context, bk *bookingDomain.Booking) error {
	for attempt := 1; ; attempt++ {
		err := s.repo.Save(ctx, bk)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingDomain.ErrBookingNumberTaken) || attempt == saveAttempts {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		s.logger.Warn("booking number collision, renewing",
			zap.String("booking_number", bk.BookingNumber()),
			zap.Int("attempt", attempt),
		)
		if err := bk.RenewNumber(); err != nil {
			return err
		}
	}
}

// ApproveBooking approves or rejects a pending booking on behalf of the item owner.
// On approval the item is marked unavailable after the booking write; that second write is
// best-effort and its failure does not change the result.
func (s *BookingService) ApproveBooking(ctx context.Context, caller auth.Caller, bookingID uuid.UUID, approve bool) (*BookingDTO, error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if approve {
		err = bk.Approve(caller.UserID, now)
	} else {
		err = bk.Reject(caller.UserID, now)
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking decided",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", bk.Status().String()),
	)

	result := toBookingDTO(bk)
	s.notifier.BookingUpdated(ctx, result)

	if approve {
		if it := s.setAvailability(ctx, bk.ItemID(), false); it != nil {
			s.notifier.ItemUpdated(ctx, toItemDTO(it))
		}
	}
	return &result, nil
}

// CompleteBooking marks the item returned and makes it available again, unless another
// approved or active booking still holds it.
func (s *BookingService) CompleteBooking(ctx context.Context, caller auth.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.items.FindByID(ctx, bk.ItemID()); err != nil {
		return nil, err
	}

	if err := bk.Complete(caller.UserID, s.now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking completed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", bk.ItemID().String()),
	)

	result := toBookingDTO(bk)
	s.notifier.BookingUpdated(ctx, result)
	s.releaseItem(ctx, bk)
	return &result, nil
}

// releaseItem restores availability after bk stopped holding its item. The item stays
// unavailable while another booking holds it, or when that cannot be determined.
func (s *BookingService) releaseItem(ctx context.Context, bk *bookingDomain.Booking) {
	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	held, err := s.repo.ExistsHeldByItemID(checkCtx, bk.ItemID(), bk.ID())
	cancel()
	if err != nil {
		s.logger.Error("failed to check remaining item holds",
			zap.String("item_id", bk.ItemID().String()),
			zap.Error(err),
		)
		return
	}
	if held {
		s.logger.Info("item still held by another booking",
			zap.String("item_id", bk.ItemID().String()),
			zap.String("booking_id", bk.ID().String()),
		)
		return
	}

	if it := s.setAvailability(ctx, bk.ItemID(), true); it != nil {
		s.notifier.ItemUpdated(ctx, toItemDTO(it))
	}
}

// setAvailability writes the item flag and returns the reloaded item, or nil when the write
// or the reload failed. Errors are logged, never returned. The write is not abandoned if the
// request context is cancelled.
func (s *BookingService) setAvailability(ctx context.Context, itemID uuid.UUID, available bool) *itemDomain.Item {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.items.SetAvailability(ctx, itemID, available); err != nil {
		s.logger.Error("failed to update item availability",
			zap.String("item_id", itemID.String()),
			zap.Bool("available", available),
			zap.Error(err),
		)
		return nil
	}

	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		s.logger.Warn("failed to reload item after availability change",
			zap.String("item_id", itemID.String()),
			zap.Error(err),
		)
		return nil
	}
	return it
}

// GetBooking returns a booking visible to its borrower, its owner, or an admin.
func (s *BookingService) GetBooking(ctx context.Context, caller auth.Caller, bookingID uuid.UUID) (*BookingDTO, error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParticipant(caller.UserID) && !caller.IsAdmin() {
		return nil, domain.NewForbiddenError("you do not have access to this booking")
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// ListMyBookings lists the caller's bookings, either as borrower (default) or as item owner.
func (s *BookingService) ListMyBookings(ctx context.Context, caller auth.Caller, as string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}

	var (
		bookings []*bookingDomain.Booking
		total    int64
		err      error
	)
	switch as {
	case "", "borrower":
		bookings, total, err = s.repo.FindByBorrowerID(ctx, caller.UserID, page, limit)
	case "owner":
		bookings, total, err = s.repo.FindByOwnerID(ctx, caller.UserID, page, limit)
	default:
		return nil, domain.NewFieldError("as", "must be one of [borrower owner]")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin). Every status is present.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses()))
	for _, st := range bookingDomain.AllStatuses() {
		byStatus[st.String()] = 0
	}
	var total int64
	for st, c := range counts {
		byStatus[st] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}
