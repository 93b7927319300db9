package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/roster"
	"github.com/phrazzld/classplan/internal/store"
)

// ClassRoomService is the classroom plan engine: classroom, student and
// table management plus roster import and export.
//
// Every mutation works on a copy of the stored aggregate and persists it
// with a single Save, so a failing call leaves the aggregate unchanged.
// Cascades into the group and annotation stores run before that Save.
type ClassRoomService interface {
	// Create stores a new empty classroom. Blank names are rejected.
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*domain.ClassRoom, error)

	// List returns the owner's classrooms ordered by id.
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error)

	// Get returns one classroom.
	Get(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error)

	// Rename replaces the classroom name.
	Rename(ctx context.Context, ownerID uuid.UUID, id int64, name string) (*domain.ClassRoom, error)

	// Delete removes the classroom after its groups and every annotation
	// attached to the classroom or to one of its students.
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error

	// Plan returns the seating view of a classroom: tables with their
	// occupants, unseated students, and each student's annotations.
	Plan(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Plan, error)

	// CreateStudent appends a student, optionally seated at the table found
	// at tableIndex.
	CreateStudent(
		ctx context.Context,
		ownerID uuid.UUID,
		classRoomID int64,
		firstName, lastName string,
		tableIndex *int,
	) (domain.Student, error)

	// UpdateStudent replaces the student's names. Nil or blank values keep
	// the current ones.
	UpdateStudent(
		ctx context.Context,
		ownerID uuid.UUID,
		classRoomID, studentID int64,
		firstName, lastName *string,
	) (domain.Student, error)

	// DeleteStudent removes a student, its group memberships and its
	// annotations. Groups left without members are deleted. The roster is
	// saved last, so a failed cascade leaves the student in place and the
	// call can be retried.
	DeleteStudent(ctx context.Context, ownerID uuid.UUID, classRoomID, studentID int64) error

	// AssignSeat seats a student at the table found at tableIndex, or
	// unseats it when tableIndex is nil.
	AssignSeat(
		ctx context.Context,
		ownerID uuid.UUID,
		classRoomID, studentID int64,
		tableIndex *int,
	) (domain.Student, error)

	// CreateTable appends a table at grid position (x, y) and returns its
	// positional index with the stored table.
	CreateTable(ctx context.Context, ownerID uuid.UUID, classRoomID int64, x, y int) (int, domain.Table, error)

	// DeleteTable removes the table at index and clears every seat that
	// pointed to it.
	DeleteTable(ctx context.Context, ownerID uuid.UUID, classRoomID int64, index int) error

	// ImportCSV creates a new classroom from CSV roster data.
	ImportCSV(ctx context.Context, ownerID uuid.UUID, data []byte) (*domain.ClassRoom, error)

	// ExportCSV renders a classroom in the canonical CSV layout.
	ExportCSV(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error)

	// ImportXLSX creates a new classroom from a roster workbook.
	ImportXLSX(ctx context.Context, ownerID uuid.UUID, data []byte) (*domain.ClassRoom, error)

	// ExportXLSX renders a classroom as a roster workbook.
	ExportXLSX(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error)
}

const classRoomServiceName = "classroom"

type classRoomServiceImpl struct {
	classRooms  store.ClassRoomStore
	groups      store.GroupStore
	annotations AnnotationService
	locks       *KeyedMutex
	logger      *slog.Logger
}

// NewClassRoomService creates a ClassRoomService. The lock table must be
// the one given to the GroupService of the same stores.
func NewClassRoomService(
	classRooms store.ClassRoomStore,
	groups store.GroupStore,
	annotations AnnotationService,
	locks *KeyedMutex,
	logger *slog.Logger,
) (ClassRoomService, error) {
	if classRooms == nil {
		return nil, nilDependency("classRooms")
	}
	if groups == nil {
		return nil, nilDependency("groups")
	}
	if annotations == nil {
		return nil, nilDependency("annotations")
	}
	if locks == nil {
		return nil, nilDependency("locks")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &classRoomServiceImpl{
		classRooms:  classRooms,
		groups:      groups,
		annotations: annotations,
		locks:       locks,
		logger:      logger.With(slog.String("component", "classroom_service")),
	}, nil
}

func (s *classRoomServiceImpl) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*domain.ClassRoom, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := domain.NewClassRoom(ownerID, name)
	if err != nil {
		log.Debug("rejected classroom", slog.String("error", err.Error()))
		return nil, err
	}
	if err := s.classRooms.Save(ctx, c); err != nil {
		log.Error("failed to save classroom", slog.String("error", err.Error()))
		return nil, wrapStoreError(classRoomServiceName, "create", err)
	}

	log.Info("created classroom", slog.Int64("classroom_id", c.ID))
	return c, nil
}

func (s *classRoomServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error) {
	rooms, err := s.classRooms.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Error("failed to list classrooms", slog.String("error", err.Error()))
		return nil, wrapStoreError(classRoomServiceName, "list", err)
	}
	return rooms, nil
}

func (s *classRoomServiceImpl) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error) {
	c, err := s.classRooms.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.storeFailure(ctx, "get", id, err)
	}
	return c, nil
}

func (s *classRoomServiceImpl) Rename(
	ctx context.Context,
	ownerID uuid.UUID,
	id int64,
	name string,
) (*domain.ClassRoom, error) {
	var out *domain.ClassRoom
	err := s.mutate(ctx, ownerID, id, "rename", func(c *domain.ClassRoom) error {
		if err := c.Rename(name); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *classRoomServiceImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("classroom_id", id))

	unlock := s.locks.Lock(classRoomKey(ownerID, id))
	defer unlock()

	c, err := s.classRooms.GetByID(ctx, ownerID, id)
	if err != nil {
		return s.storeFailure(ctx, "delete", id, err)
	}

	groups, err := s.groups.DeleteByClassRoom(ctx, ownerID, id)
	if err != nil {
		log.Error("failed to delete groups of classroom", slog.String("error", err.Error()))
		return wrapStoreError(classRoomServiceName, "delete", err)
	}
	byStudent, err := s.annotations.DeleteByStudentIDs(ctx, ownerID, c.StudentIDs())
	if err != nil {
		log.Error("failed to delete student annotations", slog.String("error", err.Error()))
		return err
	}
	byClass, err := s.annotations.DeleteByClassRoomID(ctx, ownerID, id)
	if err != nil {
		log.Error("failed to delete classroom annotations", slog.String("error", err.Error()))
		return err
	}
	if err := s.classRooms.Delete(ctx, ownerID, id); err != nil {
		return s.storeFailure(ctx, "delete", id, err)
	}

	log.Info("deleted classroom",
		slog.Int("groups", groups),
		slog.Int("annotations", byStudent+byClass))
	return nil
}

func (s *classRoomServiceImpl) Plan(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Plan, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	notes := make(map[int64][]*domain.Annotation, len(c.Students))
	for _, st := range c.Students {
		list, err := s.annotations.ListByStudent(ctx, ownerID, st.ID)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).
				Error("failed to list student annotations",
					slog.Int64("classroom_id", id),
					slog.Int64("student_id", st.ID),
					slog.String("error", err.Error()))
			return nil, err
		}
		notes[st.ID] = list
	}
	return domain.BuildPlan(c, notes), nil
}

func (s *classRoomServiceImpl) CreateStudent(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	firstName, lastName string,
	tableIndex *int,
) (domain.Student, error) {
	var pos int
	var saved *domain.ClassRoom
	err := s.mutate(ctx, ownerID, classRoomID, "create_student", func(c *domain.ClassRoom) error {
		if err := requireName(firstName, lastName); err != nil {
			return err
		}
		var err error
		pos, err = c.AddStudent(firstName, lastName, tableIndex)
		saved = c
		return err
	})
	if err != nil {
		return domain.Student{}, err
	}
	return saved.Students[pos], nil
}

func (s *classRoomServiceImpl) UpdateStudent(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID, studentID int64,
	firstName, lastName *string,
) (domain.Student, error) {
	var out domain.Student
	err := s.mutate(ctx, ownerID, classRoomID, "update_student", func(c *domain.ClassRoom) error {
		var err error
		out, err = c.UpdateStudent(studentID, firstName, lastName)
		return err
	})
	return out, err
}

func (s *classRoomServiceImpl) DeleteStudent(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID, studentID int64,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger).
		With(slog.Int64("classroom_id", classRoomID), slog.Int64("student_id", studentID))

	unlock := s.locks.Lock(classRoomKey(ownerID, classRoomID))
	defer unlock()

	c, err := s.classRooms.GetByID(ctx, ownerID, classRoomID)
	if err != nil {
		return s.storeFailure(ctx, "delete_student", classRoomID, err)
	}
	if err := c.RemoveStudent(studentID); err != nil {
		log.Debug("rejected student removal", slog.String("error", err.Error()))
		return err
	}

	groups, err := s.groups.ListByClassRoom(ctx, ownerID, classRoomID)
	if err != nil {
		log.Error("failed to list groups", slog.String("error", err.Error()))
		return wrapStoreError(classRoomServiceName, "delete_student", err)
	}
	for _, g := range groups {
		if !g.RemoveMember(studentID) {
			continue
		}
		if len(g.MemberIDs) == 0 {
			err = s.groups.Delete(ctx, ownerID, classRoomID, g.ID)
		} else {
			err = s.groups.Update(ctx, g)
		}
		if err != nil {
			log.Error("failed to strip student from group",
				slog.Int64("group_id", g.ID),
				slog.String("error", err.Error()))
			return wrapStoreError(classRoomServiceName, "delete_student", err)
		}
	}

	if _, err := s.annotations.DeleteByStudentID(ctx, ownerID, studentID); err != nil {
		log.Error("failed to delete student annotations", slog.String("error", err.Error()))
		return err
	}

	if err := s.classRooms.Save(ctx, c); err != nil {
		return s.storeFailure(ctx, "delete_student", classRoomID, err)
	}

	log.Info("deleted student")
	return nil
}

func (s *classRoomServiceImpl) AssignSeat(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID, studentID int64,
	tableIndex *int,
) (domain.Student, error) {
	var out domain.Student
	err := s.mutate(ctx, ownerID, classRoomID, "assign_seat", func(c *domain.ClassRoom) error {
		var err error
		out, err = c.SeatStudent(studentID, tableIndex)
		return err
	})
	return out, err
}

func (s *classRoomServiceImpl) CreateTable(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	x, y int,
) (int, domain.Table, error) {
	var index int
	var saved *domain.ClassRoom
	err := s.mutate(ctx, ownerID, classRoomID, "create_table", func(c *domain.ClassRoom) error {
		index = c.AddTable(x, y)
		saved = c
		return nil
	})
	if err != nil {
		return -1, domain.Table{}, err
	}
	return index, saved.Tables[index], nil
}

func (s *classRoomServiceImpl) DeleteTable(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	index int,
) error {
	return s.mutate(ctx, ownerID, classRoomID, "delete_table", func(c *domain.ClassRoom) error {
		_, err := c.RemoveTableAt(index)
		return err
	})
}

func (s *classRoomServiceImpl) ImportCSV(
	ctx context.Context,
	ownerID uuid.UUID,
	data []byte,
) (*domain.ClassRoom, error) {
	c, err := roster.ImportCSV(data)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Debug("rejected csv roster", slog.String("error", err.Error()))
		return nil, err
	}
	return s.importRoster(ctx, ownerID, c, "import_csv")
}

func (s *classRoomServiceImpl) ExportCSV(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return roster.ExportCSV(c), nil
}

func (s *classRoomServiceImpl) ImportXLSX(
	ctx context.Context,
	ownerID uuid.UUID,
	data []byte,
) (*domain.ClassRoom, error) {
	c, err := roster.ImportXLSX(bytes.NewReader(data))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Debug("rejected xlsx roster", slog.String("error", err.Error()))
		return nil, err
	}
	return s.importRoster(ctx, ownerID, c, "import_xlsx")
}

func (s *classRoomServiceImpl) ExportXLSX(ctx context.Context, ownerID uuid.UUID, id int64) ([]byte, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	data, err := roster.ExportXLSX(c)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Error("failed to render workbook", slog.String("error", err.Error()))
		return nil, NewServiceError(classRoomServiceName, "export_xlsx", "failed to render workbook", err)
	}
	return data, nil
}

// importRoster stores an imported roster as a brand new classroom. Ids from
// the file only describe the file; the store allocates fresh ones.
func (s *classRoomServiceImpl) importRoster(
	ctx context.Context,
	ownerID uuid.UUID,
	c *domain.ClassRoom,
	op string,
) (*domain.ClassRoom, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c.ID = 0
	c.OwnerID = ownerID
	for i := range c.Students {
		c.Students[i].ID = 0
		c.Students[i].TableID = nil
	}
	c.Tables = []domain.Table{}

	if err := s.classRooms.Save(ctx, c); err != nil {
		log.Error("failed to save imported classroom", slog.String("error", err.Error()))
		return nil, wrapStoreError(classRoomServiceName, op, err)
	}

	log.Info("imported classroom",
		slog.Int64("classroom_id", c.ID),
		slog.Int("students", len(c.Students)))
	return c, nil
}

// mutate loads a copy of the classroom under its lock, applies fn and saves
// the result. Nothing is saved when fn fails.
func (s *classRoomServiceImpl) mutate(
	ctx context.Context,
	ownerID uuid.UUID,
	id int64,
	op string,
	fn func(*domain.ClassRoom) error,
) error {
	unlock := s.locks.Lock(classRoomKey(ownerID, id))
	defer unlock()
	return s.mutateLocked(ctx, ownerID, id, op, fn)
}

func (s *classRoomServiceImpl) mutateLocked(
	ctx context.Context,
	ownerID uuid.UUID,
	id int64,
	op string,
	fn func(*domain.ClassRoom) error,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c, err := s.classRooms.GetByID(ctx, ownerID, id)
	if err != nil {
		return s.storeFailure(ctx, op, id, err)
	}
	if err := fn(c); err != nil {
		log.Debug("rejected classroom change",
			slog.String("operation", op),
			slog.Int64("classroom_id", id),
			slog.String("error", err.Error()))
		return err
	}
	if err := s.classRooms.Save(ctx, c); err != nil {
		return s.storeFailure(ctx, op, id, err)
	}

	log.Debug("saved classroom", slog.String("operation", op), slog.Int64("classroom_id", id))
	return nil
}

func (s *classRoomServiceImpl) storeFailure(ctx context.Context, op string, id int64, err error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if store.IsNotFoundError(err) || domain.IsNotFound(err) {
		log.Debug("classroom not found", slog.String("operation", op), slog.Int64("classroom_id", id))
	} else {
		log.Error("classroom store failed",
			slog.String("operation", op),
			slog.Int64("classroom_id", id),
			slog.String("error", err.Error()))
	}
	return wrapStoreError(classRoomServiceName, op, err)
}

func requireName(firstName, lastName string) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return domain.ErrBlankName
	}
	return nil
}
