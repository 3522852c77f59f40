package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	"github.com/shareloop/service-booking/pkg/database"
	"github.com/shareloop/service-booking/pkg/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber    string     `gorm:"uniqueIndex;not null;size:20"`
	ItemID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	BorrowerID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	OwnerID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status           string     `gorm:"not null;size:20;index"`
	StartDate        time.Time  `gorm:"not null"`
	EndDate          time.Time  `gorm:"not null"`
	TotalPriceCents  int64      `gorm:"not null"`
	Currency         string     `gorm:"not null;size:3;default:'USD'"`
	RequestedAt      time.Time  `gorm:"not null"`
	ApprovedAt       *time.Time `gorm:""`
	ActualReturnDate *time.Time `gorm:""`
	CompletedAt      *time.Time `gorm:""`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByBorrowerID retrieves bookings requested by a borrower with pagination.
func (r *GormBookingRepository) FindByBorrowerID(ctx context.Context, borrowerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.Where("borrower_id = ?", borrowerID), page, limit)
}

// FindByOwnerID retrieves bookings on items owned by a user with pagination.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db.Where("owner_id = ?", ownerID), page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, r.db, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, scope *gorm.DB, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := scope.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := scope.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CountByItemID returns how many bookings reference an item.
func (r *GormBookingRepository) CountByItemID(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("item_id = ?", itemID).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count item bookings: %w", err)
	}
	return total, nil
}

// ExistsHeldByItemID reports whether a booking other than excludeID currently holds the item.
func (r *GormBookingRepository) ExistsHeldByItemID(ctx context.Context, itemID, excludeID uuid.UUID) (bool, error) {
	held := bookingDomain.HeldStatuses()
	statuses := make([]string, len(held))
	for i, st := range held {
		statuses[i] = string(st)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("item_id = ? AND id <> ? AND status IN ?", itemID, excludeID, statuses).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("failed to check item holds: %w", err)
	}
	return total > 0, nil
}

// FindOverdueActive returns active bookings whose end date is before now.
func (r *GormBookingRepository) FindOverdueActive(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.findWhere(ctx, "status = ? AND end_date < ?", string(bookingDomain.StatusActive), now)
}

// FindDueApproved returns approved bookings whose start date is at or before now.
func (r *GormBookingRepository) FindDueApproved(ctx context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	return r.findWhere(ctx, "status = ? AND start_date <= ?", string(bookingDomain.StatusApproved), now)
}

func (r *GormBookingRepository) findWhere(ctx context.Context, query string, args ...interface{}) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).Where(query, args...).Order("start_date ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := r.db.WithContext(ctx).Create(toBookingModel(bk)).Error; err != nil {
		// IDs are random UUIDs, so the booking number is the only unique key that can collide.
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("failed to save booking %s: %w", bk.BookingNumber(), bookingDomain.ErrBookingNumberTaken)
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion has already been called, so the stored row holds the previous version.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":             model.Status,
			"approved_at":        model.ApprovedAt,
			"actual_return_date": model.ActualReturnDate,
			"completed_at":       model.CompletedAt,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// TransitionStatus moves the listed bookings from one status to another in a single
// predicate update and returns the IDs of the rows that changed.
func (r *GormBookingRepository) TransitionStatus(
	ctx context.Context,
	ids []uuid.UUID,
	from, to bookingDomain.BookingStatus,
	at time.Time,
) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var changed []BookingModel
	result := r.db.WithContext(ctx).
		Model(&changed).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id IN ? AND status = ?", ids, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"version":    gorm.Expr("version + 1"),
			"updated_at": at,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to transition bookings: %w", result.Error)
	}

	out := make([]uuid.UUID, len(changed))
	for i, m := range changed {
		out[i] = m.ID
	}
	return out, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		ItemID:           bk.ItemID(),
		BorrowerID:       bk.BorrowerID(),
		OwnerID:          bk.OwnerID(),
		Status:           string(bk.Status()),
		StartDate:        bk.StartDate(),
		EndDate:          bk.EndDate(),
		TotalPriceCents:  bk.TotalPriceCents(),
		Currency:         bk.Currency(),
		RequestedAt:      bk.RequestedAt(),
		ApprovedAt:       bk.ApprovedAt(),
		ActualReturnDate: bk.ActualReturnDate(),
		CompletedAt:      bk.CompletedAt(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.ItemID,
		m.BorrowerID,
		m.OwnerID,
		status,
		m.StartDate.UTC(),
		m.EndDate.UTC(),
		m.TotalPriceCents,
		m.Currency,
		m.RequestedAt.UTC(),
		utcPtr(m.ApprovedAt),
		utcPtr(m.ActualReturnDate),
		utcPtr(m.CompletedAt),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
