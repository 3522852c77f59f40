package application

import (
	"context"
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

// ItemService implements use cases for item listings.
type ItemService struct {
	repo      itemDomain.ItemRepository
	bookings  bookingDomain.BookingRepository
	users     userDomain.UserRepository
	validator RequestValidator
	notifier  Notifier
	logger    *zap.Logger
}

// NewItemService creates a new ItemService. notifier may be nil.
func NewItemService(
	repo itemDomain.ItemRepository,
	bookings bookingDomain.BookingRepository,
	users userDomain.UserRepository,
	validator RequestValidator,
	notifier Notifier,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		repo:      repo,
		bookings:  bookings,
		users:     users,
		validator: validator,
		notifier:  notifierOrNop(notifier),
		logger:    logger,
	}
}

// CreateItem lists a new item owned by the caller. The caller is recorded in the user
// directory if it has not been seen yet.
func (s *ItemService) CreateItem(ctx context.Context, caller auth.Caller, req CreateItemRequest) (*ItemDTO, error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}
	if fields := s.validator.Validate(req); len(fields) > 0 {
		return nil, domain.NewFieldValidationError(fields)
	}

	it, err := itemDomain.NewItem(caller.UserID, req.Title, req.Description, req.Category, req.DailyRateCents, req.Currency)
	if err != nil {
		return nil, err
	}

	if err := s.ensureOwnerKnown(ctx, caller.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, it); err != nil {
		s.logger.Error("failed to create item", zap.Error(err))
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("item listed",
		zap.String("item_id", it.ID().String()),
		zap.String("owner_id", caller.UserID.String()),
	)
	result := toItemDTO(it)
	s.notifier.ItemUpdated(ctx, result)
	return &result, nil
}

func (s *ItemService) ensureOwnerKnown(ctx context.Context, ownerID uuid.UUID) error {
	_, err := s.users.FindByID(ctx, ownerID)
	if err == nil {
		return nil
	}
	if !domain.IsNotFound(err) {
		return fmt.Errorf("failed to look up owner: %w", err)
	}
	// Zero timestamp: any later directory event replaces this placeholder.
	if err := s.users.Upsert(ctx, userDomain.NewUser(ownerID, "", "", time.Time{})); err != nil {
		return fmt.Errorf("failed to record owner: %w", err)
	}
	return nil
}

// GetItem returns a single item by ID.
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*ItemDTO, error) {
	it, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	result := toItemDTO(it)
	return &result, nil
}

// ListItems returns a page of items, optionally only those currently available.
func (s *ItemService) ListItems(ctx context.Context, availableOnly bool, page, limit int) (*domain.PaginatedResult[ItemDTO], error) {
	items, total, err := s.repo.List(ctx, availableOnly, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	result := domain.NewPaginatedResult(toItemDTOs(items), total, page, limit)
	return &result, nil
}

// ListMyItems returns the caller's own listings.
func (s *ItemService) ListMyItems(ctx context.Context, caller auth.Caller, page, limit int) (*domain.PaginatedResult[ItemDTO], error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}
	items, total, err := s.repo.FindByOwnerID(ctx, caller.UserID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	result := domain.NewPaginatedResult(toItemDTOs(items), total, page, limit)
	return &result, nil
}

// UpdateItem edits a listing, verifying ownership. Availability is managed by bookings only.
func (s *ItemService) UpdateItem(ctx context.Context, caller auth.Caller, itemID uuid.UUID, req UpdateItemRequest) (*ItemDTO, error) {
	it, err := s.loadOwned(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}
	if fields := s.validator.Validate(req); len(fields) > 0 {
		return nil, domain.NewFieldValidationError(fields)
	}

	if err := it.Update(req.Title, req.Description, req.Category, req.DailyRateCents); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}

	s.logger.Info("item updated", zap.String("item_id", itemID.String()))
	result := toItemDTO(it)
	s.notifier.ItemUpdated(ctx, result)
	return &result, nil
}

// DeleteItem removes a listing. Items referenced by any booking cannot be deleted.
func (s *ItemService) DeleteItem(ctx context.Context, caller auth.Caller, itemID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, caller, itemID); err != nil {
		return err
	}

	count, err := s.bookings.CountByItemID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to count bookings: %w", err)
	}
	if count > 0 {
		return domain.NewConflictError("item has bookings and cannot be deleted")
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		return err
	}

	s.logger.Info("item deleted", zap.String("item_id", itemID.String()))
	return nil
}

func (s *ItemService) loadOwned(ctx context.Context, caller auth.Caller, itemID uuid.UUID) (*itemDomain.Item, error) {
	if !caller.Authenticated() {
		return nil, domain.NewUnauthorizedError()
	}
	it, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.IsOwnedBy(caller.UserID) {
		return nil, domain.NewForbiddenError("only the owner may modify this item")
	}
	return it, nil
}

func toItemDTOs(items []*itemDomain.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	return dtos
}
