package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode classifies a DomainError for transport mapping.
type ErrorCode string

const (
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeConflict     ErrorCode = "CONFLICT"
)

// DomainError is the typed error returned by domain and application code.
type DomainError struct {
	Code    ErrorCode
	Message string
	// Fields holds per-field messages for validation failures, keyed by the request field name.
	Fields map[string][]string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// NewUnauthorizedError is returned when no caller identity can be resolved.
func NewUnauthorizedError() *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: "authentication required"}
}

// NewNotFoundError reports a missing entity, e.g. "booking not found". The id is not echoed
// back to callers.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", strings.ToLower(entity)),
	}
}

// NewForbiddenError reports a caller that is not allowed to perform the action.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: msg}
}

// NewInvalidStateError reports a transition attempted from the wrong source status.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewInvalidStateMessage reports a guard violation with a caller-facing message.
func NewInvalidStateMessage(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: msg}
}

// NewValidationError reports a single structural problem with a request.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

// NewFieldValidationError reports one or more field-keyed problems with a request.
func NewFieldValidationError(fields map[string][]string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// NewFieldError is a shorthand for a single field problem.
func NewFieldError(field, msg string) *DomainError {
	return NewFieldValidationError(map[string][]string{field: {msg}})
}

// NewConflictError reports a write that collides with existing state.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

// CodeOf returns the DomainError code carried by err, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsForbidden(err error) bool    { return CodeOf(err) == CodeForbidden }
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }
func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsUnauthorized(err error) bool { return CodeOf(err) == CodeUnauthorized }
