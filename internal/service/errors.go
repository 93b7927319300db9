package service

import (
	"fmt"

	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/store"
)

// ServiceError reports an unexpected failure of a collaborator, typically a
// store. Expected conditions (not found, validation, no-op) are returned as
// the domain sentinels instead.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// wrapStoreError passes domain sentinels through untouched and wraps every
// other store failure in a ServiceError. Store not-found errors already
// match the domain ones.
func wrapStoreError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsNotFound(err) || domain.IsValidation(err) {
		return err
	}
	if store.IsNotFoundError(err) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return NewServiceError(service, operation, "store operation failed", err)
}

func nilDependency(name string) error {
	return domain.NewValidationError(name, "cannot be nil", domain.ErrValidation)
}
