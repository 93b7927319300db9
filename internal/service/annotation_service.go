package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// NewAnnotation carries the fields of an annotation to create. An empty
// Type means general.
type NewAnnotation struct {
	Text        string
	StudentID   *int64
	ClassRoomID *int64
	Type        domain.AnnotationType
}

// AnnotationService manages free-text annotations about students and
// classrooms. Writes of one owner are serialized.
type AnnotationService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in NewAnnotation) (*domain.Annotation, error)
	Get(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Annotation, error)

	// Update replaces the supplied fields only. Id and creation time are kept.
	Update(ctx context.Context, ownerID uuid.UUID, id int64, patch domain.AnnotationPatch) (*domain.Annotation, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error

	// The bulk deletes report how many annotations were removed; removing
	// nothing is not an error.
	DeleteByStudentID(ctx context.Context, ownerID uuid.UUID, studentID int64) (int, error)
	DeleteByStudentIDs(ctx context.Context, ownerID uuid.UUID, studentIDs []int64) (int, error)
	DeleteByClassRoomID(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error)

	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Annotation, error)
	ListByStudent(ctx context.Context, ownerID uuid.UUID, studentID int64) ([]*domain.Annotation, error)
	ListByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Annotation, error)
	ListByType(ctx context.Context, ownerID uuid.UUID, t domain.AnnotationType) ([]*domain.Annotation, error)
	ListByStudentAndType(
		ctx context.Context,
		ownerID uuid.UUID,
		studentID int64,
		t domain.AnnotationType,
	) ([]*domain.Annotation, error)
	ListByClassRoomAndType(
		ctx context.Context,
		ownerID uuid.UUID,
		classRoomID int64,
		t domain.AnnotationType,
	) ([]*domain.Annotation, error)

	// Stats counts the owner's annotations overall, per student and per
	// classroom.
	Stats(ctx context.Context, ownerID uuid.UUID) (domain.AnnotationStats, error)
}

const annotationServiceName = "annotation"

type annotationServiceImpl struct {
	annotations store.AnnotationStore
	locks       *KeyedMutex
	logger      *slog.Logger
}

// NewAnnotationService creates an AnnotationService.
func NewAnnotationService(
	annotations store.AnnotationStore,
	locks *KeyedMutex,
	logger *slog.Logger,
) (AnnotationService, error) {
	if annotations == nil {
		return nil, nilDependency("annotations")
	}
	if locks == nil {
		return nil, nilDependency("locks")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &annotationServiceImpl{
		annotations: annotations,
		locks:       locks,
		logger:      logger.With(slog.String("component", "annotation_service")),
	}, nil
}

func (s *annotationServiceImpl) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	in NewAnnotation,
) (*domain.Annotation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	a, err := domain.NewAnnotation(ownerID, in.Text, in.StudentID, in.ClassRoomID, in.Type)
	if err != nil {
		log.Debug("rejected annotation", slog.String("error", err.Error()))
		return nil, err
	}

	unlock := s.locks.Lock(annotationKey(ownerID))
	defer unlock()

	if err := s.annotations.Create(ctx, a); err != nil {
		log.Error("failed to create annotation", slog.String("error", err.Error()))
		return nil, wrapStoreError(annotationServiceName, "create", err)
	}
	log.Debug("created annotation", slog.Int64("annotation_id", a.ID))
	return a, nil
}

func (s *annotationServiceImpl) Get(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Annotation, error) {
	a, err := s.annotations.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.failure(ctx, "get", err)
	}
	return a, nil
}

func (s *annotationServiceImpl) Update(
	ctx context.Context,
	ownerID uuid.UUID,
	id int64,
	patch domain.AnnotationPatch,
) (*domain.Annotation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("annotation_id", id))

	unlock := s.locks.Lock(annotationKey(ownerID))
	defer unlock()

	a, err := s.annotations.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, s.failure(ctx, "update", err)
	}
	if err := a.Apply(patch); err != nil {
		log.Debug("rejected annotation update", slog.String("error", err.Error()))
		return nil, err
	}
	if err := s.annotations.Update(ctx, a); err != nil {
		return nil, s.failure(ctx, "update", err)
	}
	log.Debug("updated annotation")
	return a, nil
}

func (s *annotationServiceImpl) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	unlock := s.locks.Lock(annotationKey(ownerID))
	defer unlock()

	if err := s.annotations.Delete(ctx, ownerID, id); err != nil {
		return s.failure(ctx, "delete", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).
		Debug("deleted annotation", slog.Int64("annotation_id", id))
	return nil
}

func (s *annotationServiceImpl) DeleteByStudentID(
	ctx context.Context,
	ownerID uuid.UUID,
	studentID int64,
) (int, error) {
	return s.DeleteByStudentIDs(ctx, ownerID, []int64{studentID})
}

func (s *annotationServiceImpl) DeleteByStudentIDs(
	ctx context.Context,
	ownerID uuid.UUID,
	studentIDs []int64,
) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	unlock := s.locks.Lock(annotationKey(ownerID))
	defer unlock()

	n, err := s.annotations.DeleteByStudentIDs(ctx, ownerID, studentIDs)
	if err != nil {
		return 0, s.failure(ctx, "delete_by_student_ids", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).
		Debug("deleted student annotations", slog.Int("count", n))
	return n, nil
}

func (s *annotationServiceImpl) DeleteByClassRoomID(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
) (int, error) {
	unlock := s.locks.Lock(annotationKey(ownerID))
	defer unlock()

	n, err := s.annotations.DeleteByClassRoomID(ctx, ownerID, classRoomID)
	if err != nil {
		return 0, s.failure(ctx, "delete_by_classroom_id", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).
		Debug("deleted classroom annotations",
			slog.Int64("classroom_id", classRoomID),
			slog.Int("count", n))
	return n, nil
}

func (s *annotationServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Annotation, error) {
	return s.find(ctx, ownerID, domain.AnnotationFilter{})
}

func (s *annotationServiceImpl) ListByStudent(
	ctx context.Context,
	ownerID uuid.UUID,
	studentID int64,
) ([]*domain.Annotation, error) {
	return s.find(ctx, ownerID, domain.AnnotationFilter{StudentID: &studentID})
}

func (s *annotationServiceImpl) ListByClassRoom(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
) ([]*domain.Annotation, error) {
	return s.find(ctx, ownerID, domain.AnnotationFilter{ClassRoomID: &classRoomID})
}

func (s *annotationServiceImpl) ListByType(
	ctx context.Context,
	ownerID uuid.UUID,
	t domain.AnnotationType,
) ([]*domain.Annotation, error) {
	if !t.Valid() {
		return nil, domain.ErrInvalidAnnotationType
	}
	return s.find(ctx, ownerID, domain.AnnotationFilter{Type: &t})
}

func (s *annotationServiceImpl) ListByStudentAndType(
	ctx context.Context,
	ownerID uuid.UUID,
	studentID int64,
	t domain.AnnotationType,
) ([]*domain.Annotation, error) {
	if !t.Valid() {
		return nil, domain.ErrInvalidAnnotationType
	}
	return s.find(ctx, ownerID, domain.AnnotationFilter{StudentID: &studentID, Type: &t})
}

func (s *annotationServiceImpl) ListByClassRoomAndType(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	t domain.AnnotationType,
) ([]*domain.Annotation, error) {
	if !t.Valid() {
		return nil, domain.ErrInvalidAnnotationType
	}
	return s.find(ctx, ownerID, domain.AnnotationFilter{ClassRoomID: &classRoomID, Type: &t})
}

func (s *annotationServiceImpl) Stats(ctx context.Context, ownerID uuid.UUID) (domain.AnnotationStats, error) {
	all, err := s.find(ctx, ownerID, domain.AnnotationFilter{})
	if err != nil {
		return domain.AnnotationStats{}, err
	}
	return domain.ComputeAnnotationStats(all), nil
}

func (s *annotationServiceImpl) find(
	ctx context.Context,
	ownerID uuid.UUID,
	filter domain.AnnotationFilter,
) ([]*domain.Annotation, error) {
	out, err := s.annotations.Find(ctx, ownerID, filter)
	if err != nil {
		return nil, s.failure(ctx, "find", err)
	}
	return out, nil
}

func (s *annotationServiceImpl) failure(ctx context.Context, op string, err error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if store.IsNotFoundError(err) {
		log.Debug("annotation not found", slog.String("operation", op))
	} else {
		log.Error("annotation store failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
	}
	return wrapStoreError(annotationServiceName, op, err)
}
