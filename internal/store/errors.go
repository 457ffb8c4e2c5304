package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrStoreUnavailable is returned when the database cannot be reached or
	// did not answer before the deadline. It is never retried here.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidPlan is returned when a query plan cannot be rendered.
	ErrInvalidPlan = errors.New("invalid query plan")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrWordNotFound indicates that the requested catalog word does not exist.
	ErrWordNotFound = fmt.Errorf("%w: word", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailableError checks if the store could not be reached.
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// NotFoundError reports a single-word lookup that matched no catalog entry.
// It carries the lookup context for diagnostics and wraps ErrWordNotFound.
type NotFoundError struct {
	Entity string
	WordID uuid.UUID
	UserID uuid.UUID
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s was not found: wordId=%s userId=%s", e.Entity, e.WordID, e.UserID)
}

// Unwrap returns ErrWordNotFound so callers can match with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrWordNotFound
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "user word")
	Operation string // The operation that failed (e.g., "list", "stats")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
