package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
)

// AnnotationStore defines persistence for annotations, partitioned by owner.
type AnnotationStore interface {
	// Create saves a new annotation and writes the allocated id back into a.
	Create(ctx context.Context, a *domain.Annotation) error

	// GetByID retrieves an annotation.
	// Returns ErrAnnotationNotFound if it does not exist in the owner's partition.
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Annotation, error)

	// Update replaces text, references and type of an existing annotation.
	// Returns ErrAnnotationNotFound if it does not exist.
	Update(ctx context.Context, a *domain.Annotation) error

	// Delete removes an annotation.
	// Returns ErrAnnotationNotFound if it does not exist.
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error

	// Find returns the owner's annotations matching filter, ordered by id.
	Find(ctx context.Context, ownerID uuid.UUID, filter domain.AnnotationFilter) ([]*domain.Annotation, error)

	// DeleteByStudentIDs removes every annotation whose student id is in ids
	// and returns how many were removed.
	DeleteByStudentIDs(ctx context.Context, ownerID uuid.UUID, ids []int64) (int, error)

	// DeleteByClassRoomID removes every annotation attached to the classroom
	// and returns how many were removed.
	DeleteByClassRoomID(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error)
}
