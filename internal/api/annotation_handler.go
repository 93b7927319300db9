package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/service"
)

// Query parameters of the annotation endpoints
const (
	queryStudentID   = "student_id"
	queryClassRoomID = "classroom_id"
	queryType        = "type"
)

// AnnotationHandler handles annotation requests.
type AnnotationHandler struct {
	annotations service.AnnotationService
	logger      *slog.Logger
}

// NewAnnotationHandler creates a new AnnotationHandler
func NewAnnotationHandler(annotations service.AnnotationService, logger *slog.Logger) *AnnotationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AnnotationHandler")
	}
	return &AnnotationHandler{
		annotations: annotations,
		logger:      logger.With(slog.String("component", "annotation_handler")),
	}
}

// CreateAnnotation handles POST /annotations
func (h *AnnotationHandler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req CreateAnnotationRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	a, err := h.annotations.Create(r.Context(), ownerID, service.NewAnnotation{
		Text:        req.Text,
		StudentID:   req.StudentID,
		ClassRoomID: req.ClassRoomID,
		Type:        domain.AnnotationType(req.Type),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, annotationToResponse(a))
}

// ListAnnotations handles GET /annotations. The optional student_id,
// classroom_id and type query parameters narrow the result.
func (h *AnnotationHandler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	studentID, err := queryInt64(r, queryStudentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	classRoomID, err := queryInt64(r, queryClassRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if studentID != nil && classRoomID != nil {
		HandleAPIError(w, r,
			domain.NewValidationError(queryStudentID, "cannot be combined with classroom_id", domain.ErrValidation),
			"student_id and classroom_id cannot be combined")
		return
	}

	list, err := h.list(r, ownerID, studentID, classRoomID, r.URL.Query().Get(queryType))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, annotationsToResponse(list))
}

func (h *AnnotationHandler) list(
	r *http.Request,
	ownerID uuid.UUID,
	studentID, classRoomID *int64,
	rawType string,
) ([]*domain.Annotation, error) {
	ctx := r.Context()
	if rawType == "" {
		switch {
		case studentID != nil:
			return h.annotations.ListByStudent(ctx, ownerID, *studentID)
		case classRoomID != nil:
			return h.annotations.ListByClassRoom(ctx, ownerID, *classRoomID)
		default:
			return h.annotations.List(ctx, ownerID)
		}
	}

	t, err := domain.ParseAnnotationType(rawType)
	if err != nil {
		return nil, err
	}
	switch {
	case studentID != nil:
		return h.annotations.ListByStudentAndType(ctx, ownerID, *studentID, t)
	case classRoomID != nil:
		return h.annotations.ListByClassRoomAndType(ctx, ownerID, *classRoomID, t)
	default:
		return h.annotations.ListByType(ctx, ownerID, t)
	}
}

// DeleteAnnotations handles DELETE /annotations. Exactly one of student_id
// or classroom_id selects the annotations to remove.
func (h *AnnotationHandler) DeleteAnnotations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	studentID, err := queryInt64(r, queryStudentID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	classRoomID, err := queryInt64(r, queryClassRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var n int
	switch {
	case studentID != nil && classRoomID == nil:
		n, err = h.annotations.DeleteByStudentID(r.Context(), ownerID, *studentID)
	case classRoomID != nil && studentID == nil:
		n, err = h.annotations.DeleteByClassRoomID(r.Context(), ownerID, *classRoomID)
	default:
		HandleAPIError(w, r,
			domain.NewValidationError(queryStudentID, "exactly one selector is required", domain.ErrValidation),
			"Exactly one of student_id or classroom_id is required")
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Debug("bulk deleted annotations", slog.Int("count", n))
	shared.RespondWithJSON(w, r, http.StatusOK, DeletedResponse{Deleted: n})
}

// GetStats handles GET /annotations/stats
func (h *AnnotationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	stats, err := h.annotations.Stats(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute annotation statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetAnnotation handles GET /annotations/{annotationID}
func (h *AnnotationHandler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, paramAnnotationID)
	if !ok {
		return
	}

	a, err := h.annotations.Get(r.Context(), ownerID, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, annotationToResponse(a))
}

// UpdateAnnotation handles PATCH /annotations/{annotationID}
func (h *AnnotationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, paramAnnotationID)
	if !ok {
		return
	}

	var req UpdateAnnotationRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	patch := domain.AnnotationPatch{
		Text:        req.Text,
		StudentID:   req.StudentID,
		ClassRoomID: req.ClassRoomID,
	}
	if req.Type != nil {
		t := domain.AnnotationType(*req.Type)
		patch.Type = &t
	}

	a, err := h.annotations.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, annotationToResponse(a))
}

// DeleteAnnotation handles DELETE /annotations/{annotationID}
func (h *AnnotationHandler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}
	id, ok := pathInt64(w, r, paramAnnotationID)
	if !ok {
		return
	}

	if err := h.annotations.Delete(r.Context(), ownerID, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
