package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
)

// ClassRoomStore defines persistence for ClassRoom aggregates. Students and
// tables are stored as part of their classroom, never on their own.
// Every method is scoped to an owner: an aggregate owned by someone else
// behaves exactly like a missing one.
type ClassRoomStore interface {
	// Save inserts or replaces the whole aggregate atomically.
	// A zero classroom ID inserts a new classroom; zero student and table ids
	// are allocated from store-wide sequences that never hand out an id twice.
	// The allocated ids are written back into c.
	// Returns ErrClassRoomNotFound when c.ID is set but no classroom with that
	// id exists for c.OwnerID, and ErrInvalidEntity if c fails validation.
	Save(ctx context.Context, c *domain.ClassRoom) error

	// GetByID retrieves a classroom by id within the owner's partition.
	// Returns ErrClassRoomNotFound if it does not exist there.
	// The returned aggregate is a copy the caller may mutate freely.
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error)

	// ListByOwner returns every classroom of the owner ordered by id.
	// Returns an empty slice if the owner has none.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error)

	// Delete removes a classroom with its students and tables.
	// Returns ErrClassRoomNotFound if it does not exist in the owner's partition.
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
}
