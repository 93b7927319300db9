// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error categories shared by every engine. Specific errors wrap one of these
// so callers can classify failures with errors.Is.
var (
	// ErrNotFound is returned when an entity does not exist or belongs to
	// another owner. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input fails a domain rule.
	// It is usually wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNoOp is returned when a request would change nothing.
	ErrNoOp = errors.New("nothing to do")
)

// Entity-specific not found errors.
var (
	ErrClassRoomNotFound  = fmt.Errorf("%w: classroom", ErrNotFound)
	ErrStudentNotFound    = fmt.Errorf("%w: student", ErrNotFound)
	ErrTableNotFound      = fmt.Errorf("%w: table", ErrNotFound)
	ErrGroupNotFound      = fmt.Errorf("%w: group", ErrNotFound)
	ErrAnnotationNotFound = fmt.Errorf("%w: annotation", ErrNotFound)
)

// Validation errors.
var (
	// ErrBlankName is returned when a required name is empty or whitespace.
	ErrBlankName = fmt.Errorf("%w: name cannot be blank", ErrValidation)

	// ErrTableIndexOutOfRange is returned when a positional table index does
	// not address one of the classroom's current tables.
	ErrTableIndexOutOfRange = fmt.Errorf("%w: table index out of range", ErrValidation)

	// ErrDuplicateStudentID is returned when a student id appears twice where
	// it must be unique.
	ErrDuplicateStudentID = fmt.Errorf("%w: duplicate student id", ErrValidation)

	// ErrUnknownStudent is returned when a student id does not resolve to a
	// roster student.
	ErrUnknownStudent = fmt.Errorf("%w: student is not on the roster", ErrValidation)

	// ErrBlankText is returned when annotation text is empty.
	ErrBlankText = fmt.Errorf("%w: text cannot be blank", ErrValidation)

	// ErrInvalidAnnotationType is returned for an unknown annotation type.
	ErrInvalidAnnotationType = fmt.Errorf("%w: invalid annotation type", ErrValidation)
)

// IsNotFound reports whether err is any kind of not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is any kind of validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error, ErrValidation unless another one is given.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}
