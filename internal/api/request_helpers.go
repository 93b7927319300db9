package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
)

// Path parameter names
const (
	paramClassRoomID  = "classroomID"
	paramStudentID    = "studentID"
	paramGroupID      = "groupID"
	paramTableIndex   = "tableIndex"
	paramAnnotationID = "annotationID"
)

// requireOwner returns the authenticated owner, or writes a 401 and
// returns false.
func requireOwner(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	ownerID, ok := shared.OwnerID(r.Context())
	if !ok {
		log.Warn("owner ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Owner not found or invalid")
		return uuid.Nil, false
	}
	return ownerID, true
}

// parseInt64 parses a decimal id from a path or query value.
func parseInt64(name, value string) (int64, error) {
	if value == "" {
		return 0, domain.NewValidationError(name, "is required", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(name, "has invalid format", domain.ErrValidation)
	}
	return id, nil
}

// pathInt64 reads a numeric path parameter, writing a 400 on failure.
func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := parseInt64(name, chi.URLParam(r, name))
	if err != nil {
		logger.FromContextOrDefault(r.Context(), nil).Debug("invalid path parameter",
			slog.String("param_name", name),
			slog.String("value", chi.URLParam(r, name)))
		HandleAPIError(w, r, err, "")
		return 0, false
	}
	return id, true
}

// ownerAndClassRoom combines requireOwner and the classroom path parameter.
func ownerAndClassRoom(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, int64, bool) {
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return uuid.Nil, 0, false
	}
	classRoomID, ok := pathInt64(w, r, paramClassRoomID)
	if !ok {
		return uuid.Nil, 0, false
	}
	return ownerID, classRoomID, true
}

// queryInt64 reads an optional numeric query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	id, err := parseInt64(name, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
