package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
)

// GroupStore defines persistence for student groups, indexed per owner and
// per classroom.
type GroupStore interface {
	// CreateMultiple stores all groups or none of them. Ids are assigned in
	// slice order from a monotonically increasing sequence and written back
	// into the groups.
	CreateMultiple(ctx context.Context, groups []*domain.Group) error

	// GetByID retrieves a group of the given classroom.
	// Returns ErrGroupNotFound if it does not exist in the owner's partition.
	GetByID(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) (*domain.Group, error)

	// ListByClassRoom returns the groups of a classroom ordered by id.
	// Returns an empty slice if the classroom has no groups.
	ListByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Group, error)

	// Update replaces the name and members of an existing group.
	// Returns ErrGroupNotFound if the group does not exist.
	Update(ctx context.Context, group *domain.Group) error

	// Delete removes a group. Removing the last group of a classroom also
	// drops the classroom's group index.
	// Returns ErrGroupNotFound if the group does not exist.
	Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) error

	// DeleteByClassRoom removes every group of a classroom and returns how
	// many were removed.
	DeleteByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error)
}
