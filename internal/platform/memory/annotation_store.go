package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// AnnotationStore keeps annotations in memory, partitioned by owner.
type AnnotationStore struct {
	notes  *partitions[map[int64]*domain.Annotation]
	seq    atomic.Int64
	logger *slog.Logger
}

var _ store.AnnotationStore = (*AnnotationStore)(nil)

// NewAnnotationStore creates an empty store. A nil logger uses slog.Default().
func NewAnnotationStore(logger *slog.Logger) *AnnotationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnnotationStore{
		notes: newPartitions(func() map[int64]*domain.Annotation {
			return make(map[int64]*domain.Annotation)
		}),
		logger: logger.With(slog.String("component", "memory_annotation_store")),
	}
}

func cloneAnnotation(a *domain.Annotation) *domain.Annotation {
	out := *a
	if a.StudentID != nil {
		id := *a.StudentID
		out.StudentID = &id
	}
	if a.ClassRoomID != nil {
		id := *a.ClassRoomID
		out.ClassRoomID = &id
	}
	return &out
}

func validateAnnotation(a *domain.Annotation) error {
	if a.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: annotation owner cannot be empty", store.ErrInvalidEntity)
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return nil
}

// Create implements store.AnnotationStore.
func (s *AnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	if err := validateAnnotation(a); err != nil {
		return err
	}
	return s.notes.write(a.OwnerID, func(notes map[int64]*domain.Annotation) error {
		a.ID = s.seq.Add(1)
		notes[a.ID] = cloneAnnotation(a)
		logger.FromContextOrDefault(ctx, s.logger).Debug("annotation created",
			slog.Int64("annotation_id", a.ID))
		return nil
	})
}

// GetByID implements store.AnnotationStore.
func (s *AnnotationStore) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Annotation, error) {
	var found *domain.Annotation
	s.notes.read(ownerID, func(notes map[int64]*domain.Annotation) {
		if a, ok := notes[id]; ok {
			found = cloneAnnotation(a)
		}
	})
	if found == nil {
		return nil, store.ErrAnnotationNotFound
	}
	return found, nil
}

// Update implements store.AnnotationStore.
func (s *AnnotationStore) Update(ctx context.Context, a *domain.Annotation) error {
	if err := validateAnnotation(a); err != nil {
		return err
	}
	return s.notes.write(a.OwnerID, func(notes map[int64]*domain.Annotation) error {
		if _, ok := notes[a.ID]; !ok {
			return store.ErrAnnotationNotFound
		}
		notes[a.ID] = cloneAnnotation(a)
		return nil
	})
}

// Delete implements store.AnnotationStore.
func (s *AnnotationStore) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	return s.notes.write(ownerID, func(notes map[int64]*domain.Annotation) error {
		if _, ok := notes[id]; !ok {
			return store.ErrAnnotationNotFound
		}
		delete(notes, id)
		return nil
	})
}

// Find implements store.AnnotationStore.
func (s *AnnotationStore) Find(
	ctx context.Context,
	ownerID uuid.UUID,
	filter domain.AnnotationFilter,
) ([]*domain.Annotation, error) {
	out := []*domain.Annotation{}
	s.notes.read(ownerID, func(notes map[int64]*domain.Annotation) {
		for _, a := range notes {
			if filter.Matches(a) {
				out = append(out, cloneAnnotation(a))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteByStudentIDs implements store.AnnotationStore.
func (s *AnnotationStore) DeleteByStudentIDs(ctx context.Context, ownerID uuid.UUID, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return s.deleteWhere(ctx, ownerID, func(a *domain.Annotation) bool {
		if a.StudentID == nil {
			return false
		}
		_, ok := wanted[*a.StudentID]
		return ok
	})
}

// DeleteByClassRoomID implements store.AnnotationStore.
func (s *AnnotationStore) DeleteByClassRoomID(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error) {
	return s.deleteWhere(ctx, ownerID, func(a *domain.Annotation) bool {
		return a.ClassRoomID != nil && *a.ClassRoomID == classRoomID
	})
}

func (s *AnnotationStore) deleteWhere(
	ctx context.Context,
	ownerID uuid.UUID,
	match func(*domain.Annotation) bool,
) (int, error) {
	var n int
	err := s.notes.write(ownerID, func(notes map[int64]*domain.Annotation) error {
		for id, a := range notes {
			if match(a) {
				delete(notes, id)
				n++
			}
		}
		return nil
	})
	if n > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Debug("annotations deleted", slog.Int("count", n))
	}
	return n, err
}
