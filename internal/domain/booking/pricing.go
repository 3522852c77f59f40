package booking

import (
	"fmt"
	"time"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	// DailyRateCents is nil when the item has no rate.
	DailyRateCents *int64
	StartDate      time.Time
	EndDate        time.Time
}

// DailyRatePricingStrategy charges the item's daily rate for every calendar day in the window,
// with a minimum of one day.
type DailyRatePricingStrategy struct{}

// NewDailyRatePricingStrategy creates a new DailyRatePricingStrategy.
func NewDailyRatePricingStrategy() *DailyRatePricingStrategy {
	return &DailyRatePricingStrategy{}
}

// Calculate computes the total price in cents.
func (s *DailyRatePricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.DailyRateCents == nil {
		return 0, nil
	}
	if *params.DailyRateCents < 0 {
		return 0, fmt.Errorf("daily rate cannot be negative")
	}

	days := CalendarDays(params.StartDate, params.EndDate)
	if days < 0 {
		return 0, fmt.Errorf("end date is before start date")
	}
	if days < 1 {
		days = 1
	}
	return *params.DailyRateCents * days, nil
}

// CalendarDays returns the number of whole days between the UTC calendar dates of start and end.
func CalendarDays(start, end time.Time) int64 {
	return int64(dateOf(end).Sub(dateOf(start)).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
