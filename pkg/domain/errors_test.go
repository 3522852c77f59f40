package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewNotFoundError("Booking", "abc"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "booking not found", NewNotFoundError("Booking", "abc").Error())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(fmt.Errorf("boom")))
}

func TestFieldValidationError_Message(t *testing.T) {
	err := NewFieldValidationError(map[string][]string{
		"start_date": {"must not be in the past"},
		"end_date":   {"must be after start_date"},
	})

	assert.True(t, IsValidation(err))
	assert.Equal(t,
		"validation failed (end_date: must be after start_date; start_date: must not be in the past)",
		err.Error(),
	)
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult[int](nil, 41, 2, 20)

	assert.Equal(t, 3, res.TotalPages)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}
