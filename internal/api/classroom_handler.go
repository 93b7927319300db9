package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/service"
)

// Content types of roster files
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// MaxRosterBytes bounds roster uploads.
const MaxRosterBytes = 5 << 20

// ClassRoomHandler handles classroom, student, table and roster requests.
type ClassRoomHandler struct {
	classRooms service.ClassRoomService
	logger     *slog.Logger
}

// NewClassRoomHandler creates a new ClassRoomHandler
func NewClassRoomHandler(classRooms service.ClassRoomService, logger *slog.Logger) *ClassRoomHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ClassRoomHandler")
	}
	return &ClassRoomHandler{
		classRooms: classRooms,
		logger:     logger.With(slog.String("component", "classroom_handler")),
	}
}

// CreateClassRoom handles POST /classrooms
func (h *ClassRoomHandler) CreateClassRoom(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	var req ClassRoomRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	c, err := h.classRooms.Create(r.Context(), ownerID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, classRoomToResponse(c))
}

// ListClassRooms handles GET /classrooms
func (h *ClassRoomHandler) ListClassRooms(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	list, err := h.classRooms.List(r.Context(), ownerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list classrooms")
		return
	}

	out := make([]ClassRoomSummary, len(list))
	for i, c := range list {
		out[i] = classRoomToSummary(c)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetClassRoom handles GET /classrooms/{classroomID}
func (h *ClassRoomHandler) GetClassRoom(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	c, err := h.classRooms.Get(r.Context(), ownerID, classRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, classRoomToResponse(c))
}

// GetPlan handles GET /classrooms/{classroomID}/plan
func (h *ClassRoomHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	p, err := h.classRooms.Plan(r.Context(), ownerID, classRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, planToResponse(p))
}

// RenameClassRoom handles PUT /classrooms/{classroomID}
func (h *ClassRoomHandler) RenameClassRoom(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	var req ClassRoomRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	c, err := h.classRooms.Rename(r.Context(), ownerID, classRoomID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, classRoomToResponse(c))
}

// DeleteClassRoom handles DELETE /classrooms/{classroomID}
func (h *ClassRoomHandler) DeleteClassRoom(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	if err := h.classRooms.Delete(r.Context(), ownerID, classRoomID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateStudent handles POST /classrooms/{classroomID}/students
func (h *ClassRoomHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	var req CreateStudentRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	s, err := h.classRooms.CreateStudent(r.Context(), ownerID, classRoomID, req.FirstName, req.LastName, req.TableIndex)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondWithStudent(w, r, http.StatusCreated, ownerID, classRoomID, s.ID)
}

// UpdateStudent handles PATCH /classrooms/{classroomID}/students/{studentID}
func (h *ClassRoomHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	studentID, ok := pathInt64(w, r, paramStudentID)
	if !ok {
		return
	}

	var req UpdateStudentRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, err := h.classRooms.UpdateStudent(
		r.Context(), ownerID, classRoomID, studentID, req.FirstName, req.LastName,
	); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondWithStudent(w, r, http.StatusOK, ownerID, classRoomID, studentID)
}

// DeleteStudent handles DELETE /classrooms/{classroomID}/students/{studentID}
func (h *ClassRoomHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	studentID, ok := pathInt64(w, r, paramStudentID)
	if !ok {
		return
	}

	if err := h.classRooms.DeleteStudent(r.Context(), ownerID, classRoomID, studentID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignSeat handles PUT /classrooms/{classroomID}/students/{studentID}/seat
func (h *ClassRoomHandler) AssignSeat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	studentID, ok := pathInt64(w, r, paramStudentID)
	if !ok {
		return
	}

	var req SeatRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, err := h.classRooms.AssignSeat(r.Context(), ownerID, classRoomID, studentID, req.TableIndex); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respondWithStudent(w, r, http.StatusOK, ownerID, classRoomID, studentID)
}

// CreateTable handles POST /classrooms/{classroomID}/tables
func (h *ClassRoomHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	var req CreateTableRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	index, t, err := h.classRooms.CreateTable(r.Context(), ownerID, classRoomID, req.X, req.Y)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, TableResponse{Index: index, ID: t.ID, X: t.X, Y: t.Y})
}

// DeleteTable handles DELETE /classrooms/{classroomID}/tables/{tableIndex}
func (h *ClassRoomHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	index, ok := pathInt64(w, r, paramTableIndex)
	if !ok {
		return
	}

	if err := h.classRooms.DeleteTable(r.Context(), ownerID, classRoomID, int(index)); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportCSV handles POST /classrooms/import/csv. The body is the raw file.
func (h *ClassRoomHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	h.importRoster(w, r, h.classRooms.ImportCSV)
}

// ImportXLSX handles POST /classrooms/import/xlsx. The body is the raw file.
func (h *ClassRoomHandler) ImportXLSX(w http.ResponseWriter, r *http.Request) {
	h.importRoster(w, r, h.classRooms.ImportXLSX)
}

// ExportCSV handles GET /classrooms/{classroomID}/export/csv
func (h *ClassRoomHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportRoster(w, r, h.classRooms.ExportCSV, ContentTypeCSV, "csv")
}

// ExportXLSX handles GET /classrooms/{classroomID}/export/xlsx
func (h *ClassRoomHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportRoster(w, r, h.classRooms.ExportXLSX, ContentTypeXLSX, "xlsx")
}

type importFunc func(ctx context.Context, ownerID uuid.UUID, data []byte) (*domain.ClassRoom, error)

type exportFunc func(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error)

func (h *ClassRoomHandler) importRoster(w http.ResponseWriter, r *http.Request, run importFunc) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, ok := requireOwner(w, r, log)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxRosterBytes))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read roster file")
		return
	}

	c, err := run(r.Context(), ownerID, data)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("imported roster",
		slog.Int64("classroom_id", c.ID),
		slog.Int("students", len(c.Students)))
	shared.RespondWithJSON(w, r, http.StatusCreated, classRoomToResponse(c))
}

func (h *ClassRoomHandler) exportRoster(
	w http.ResponseWriter,
	r *http.Request,
	run exportFunc,
	contentType, extension string,
) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	data, err := run(r.Context(), ownerID, classRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	fileName := "classroom-" + strconv.FormatInt(classRoomID, 10) + "." + extension
	shared.RespondWithFile(w, r, contentType, fileName, data)
}

// respondWithStudent reloads the classroom so the seat is reported with its
// current table index.
func (h *ClassRoomHandler) respondWithStudent(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	ownerID uuid.UUID,
	classRoomID, studentID int64,
) {
	c, err := h.classRooms.Get(r.Context(), ownerID, classRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	s, ok := c.Student(studentID)
	if !ok {
		HandleAPIError(w, r, domain.ErrStudentNotFound, "")
		return
	}
	shared.RespondWithJSON(w, r, status, studentToResponse(s, tableIndexes(c)))
}
