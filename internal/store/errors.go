package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/classplan/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// caller's owner partition.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors. Each also matches the domain
	// not-found sentinel so services can return them unchanged.

	// ErrClassRoomNotFound indicates that the classroom does not exist.
	ErrClassRoomNotFound = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrClassRoomNotFound)

	// ErrGroupNotFound indicates that the group does not exist.
	ErrGroupNotFound = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrGroupNotFound)

	// ErrAnnotationNotFound indicates that the annotation does not exist.
	ErrAnnotationNotFound = fmt.Errorf("%w: %w", ErrNotFound, domain.ErrAnnotationNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "classroom", "group")
	Operation string // The operation that failed (e.g., "save", "delete")
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
