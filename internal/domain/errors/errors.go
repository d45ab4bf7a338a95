// Package errors provides the error taxonomy shared by the domain layer.
// Every failure falls into one of four categories: validation (bad input,
// rejected before I/O), not found (caller referenced a missing entity),
// conflict (the operation is illegal for the aggregate's current state) and
// internal (invariant violations and deployment misconfiguration, surfaced
// to operators rather than end users).
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates invalid caller input.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the operation is illegal for the current state.
	ErrConflict = errors.New("conflict")

	// ErrInternal indicates an invariant violation or misconfiguration.
	ErrInternal = errors.New("internal error")
)

// AppError carries a category sentinel, a stable machine-readable code and
// optional structured details.
type AppError struct {
	Err     error
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// ValidationError creates a validation error for a single field.
func ValidationError(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NotFoundError creates a not found error for the named resource.
func NotFoundError(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    fmt.Sprintf("%s_NOT_FOUND", resource),
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// ConflictError creates a conflict error.
func ConflictError(resource, reason string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    "CONFLICT",
		Message: fmt.Sprintf("%s: %s", resource, reason),
	}
}

// InternalError creates an internal error wrapping its cause.
func InternalError(message string, err error) *AppError {
	ae := &AppError{
		Err:     ErrInternal,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if err != nil {
		ae.Details = map[string]interface{}{"cause": err.Error()}
	}
	return ae
}

// InvariantError reports a mismatch between an aggregate's lifecycle markers
// and its transaction set. These signal data corruption or a logic bug, never
// bad user input, and must abort the affected unit of work.
func InvariantError(aggregateKind, reason string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Code:    "INVARIANT_VIOLATION",
		Message: fmt.Sprintf("invariant violated for %s: %s", aggregateKind, reason),
		Details: map[string]interface{}{
			"aggregate_kind": aggregateKind,
			"reason":         reason,
		},
	}
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInternal checks if an error is an internal error.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// IsInvariantViolation reports whether the error is specifically an
// invariant violation (a subset of internal errors).
func IsInvariantViolation(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == "INVARIANT_VIOLATION"
	}
	return false
}

// Reason extracts the structured reason from an invariant violation, or ""
// when the error is not one.
func Reason(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Details != nil {
		if r, ok := ae.Details["reason"].(string); ok {
			return r
		}
	}
	return ""
}

// Code extracts the machine-readable code from an AppError.
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "UNKNOWN_ERROR"
}
