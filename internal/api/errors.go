package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/roster"
	"github.com/phrazzld/classplan/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Missing
// data and data of another owner both map to 404.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingOwner):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrNoOp):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, shared.ErrInvalidBody):
		return http.StatusBadRequest

	default:
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err that never
// exposes internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingOwner):
		return "Invalid token"

	case errors.Is(err, domain.ErrClassRoomNotFound):
		return "Classroom not found"
	case errors.Is(err, domain.ErrStudentNotFound):
		return "Student not found"
	case errors.Is(err, domain.ErrTableNotFound):
		return "Table not found"
	case errors.Is(err, domain.ErrGroupNotFound):
		return "Group not found"
	case errors.Is(err, domain.ErrAnnotationNotFound):
		return "Annotation not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrEmptyUpdate):
		return "Group update changes nothing"

	case errors.Is(err, domain.ErrBlankName):
		return "Name cannot be blank"
	case errors.Is(err, domain.ErrBlankText):
		return "Text cannot be blank"
	case errors.Is(err, domain.ErrInvalidAnnotationType):
		return "Invalid annotation type"
	case errors.Is(err, domain.ErrTableIndexOutOfRange):
		return "Table index out of range"
	case errors.Is(err, domain.ErrDuplicateStudentID):
		return "Student listed more than once"
	case errors.Is(err, domain.ErrUnknownStudent):
		return "Student is not on the roster"
	case errors.Is(err, domain.ErrOverlappingMembership):
		return "Students cannot be added and removed at once"
	case errors.Is(err, domain.ErrNotAMember):
		return "Student is not a member of the group"
	case errors.Is(err, domain.ErrAlreadyAMember):
		return "Student is already a member of the group"
	case errors.Is(err, partition.ErrEmptyRoster):
		return "Classroom has no students"
	case errors.Is(err, partition.ErrInvalidGroupCount):
		return "Invalid group count"
	case errors.Is(err, partition.ErrNoGroups):
		return "No groups requested"
	case errors.Is(err, partition.ErrEmptyGroup):
		return "Groups cannot be empty"
	case errors.Is(err, roster.ErrEmptyInput):
		return "Roster file is empty"
	case errors.Is(err, roster.ErrMalformed):
		return "Roster file is malformed"
	case errors.Is(err, shared.ErrInvalidBody):
		return "Invalid request format"
	}

	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		return fmt.Sprintf("Invalid %s", fieldErr.Field)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return SanitizeValidationError(verrs)
	}
	if errors.Is(err, domain.ErrValidation) {
		return "Validation error"
	}
	return "An unexpected error occurred"
}

// SanitizeValidationError turns struct validation failures into a short
// message naming the first offending field.
func SanitizeValidationError(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. A non-empty message
// replaces the safe default message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
