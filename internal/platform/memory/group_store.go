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

// groupIndex maps classroom id to the classroom's groups by id.
type groupIndex map[int64]map[int64]*domain.Group

// GroupStore keeps groups in memory, indexed by owner and classroom.
type GroupStore struct {
	groups *partitions[groupIndex]
	seq    atomic.Int64
	logger *slog.Logger
}

var _ store.GroupStore = (*GroupStore)(nil)

// NewGroupStore creates an empty store. A nil logger uses slog.Default().
func NewGroupStore(logger *slog.Logger) *GroupStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupStore{
		groups: newPartitions(func() groupIndex { return make(groupIndex) }),
		logger: logger.With(slog.String("component", "memory_group_store")),
	}
}

func validateGroup(g *domain.Group) error {
	if g.OwnerID == uuid.Nil {
		return fmt.Errorf("%w: group owner cannot be empty", store.ErrInvalidEntity)
	}
	if g.ClassRoomID == 0 {
		return fmt.Errorf("%w: group classroom cannot be empty", store.ErrInvalidEntity)
	}
	return nil
}

// CreateMultiple implements store.GroupStore.
func (s *GroupStore) CreateMultiple(ctx context.Context, groups []*domain.Group) error {
	if len(groups) == 0 {
		return nil
	}
	owner := groups[0].OwnerID
	for _, g := range groups {
		if err := validateGroup(g); err != nil {
			return err
		}
		if g.OwnerID != owner {
			return fmt.Errorf("%w: groups span several owners", store.ErrInvalidEntity)
		}
	}

	return s.groups.write(owner, func(idx groupIndex) error {
		for _, g := range groups {
			g.ID = s.seq.Add(1)
			byID, ok := idx[g.ClassRoomID]
			if !ok {
				byID = make(map[int64]*domain.Group)
				idx[g.ClassRoomID] = byID
			}
			byID[g.ID] = g.Clone()
		}
		logger.FromContextOrDefault(ctx, s.logger).Debug("groups created",
			slog.Int("count", len(groups)))
		return nil
	})
}

// GetByID implements store.GroupStore.
func (s *GroupStore) GetByID(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) (*domain.Group, error) {
	var found *domain.Group
	s.groups.read(ownerID, func(idx groupIndex) {
		if g, ok := idx[classRoomID][id]; ok {
			found = g.Clone()
		}
	})
	if found == nil {
		return nil, store.ErrGroupNotFound
	}
	return found, nil
}

// ListByClassRoom implements store.GroupStore.
func (s *GroupStore) ListByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Group, error) {
	out := []*domain.Group{}
	s.groups.read(ownerID, func(idx groupIndex) {
		for _, g := range idx[classRoomID] {
			out = append(out, g.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update implements store.GroupStore.
func (s *GroupStore) Update(ctx context.Context, group *domain.Group) error {
	if err := validateGroup(group); err != nil {
		return err
	}
	return s.groups.write(group.OwnerID, func(idx groupIndex) error {
		if _, ok := idx[group.ClassRoomID][group.ID]; !ok {
			return store.ErrGroupNotFound
		}
		idx[group.ClassRoomID][group.ID] = group.Clone()
		return nil
	})
}

// Delete implements store.GroupStore.
func (s *GroupStore) Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) error {
	return s.groups.write(ownerID, func(idx groupIndex) error {
		byID := idx[classRoomID]
		if _, ok := byID[id]; !ok {
			return store.ErrGroupNotFound
		}
		delete(byID, id)
		if len(byID) == 0 {
			delete(idx, classRoomID)
		}
		return nil
	})
}

// DeleteByClassRoom implements store.GroupStore.
func (s *GroupStore) DeleteByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error) {
	var n int
	err := s.groups.write(ownerID, func(idx groupIndex) error {
		n = len(idx[classRoomID])
		delete(idx, classRoomID)
		return nil
	})
	return n, err
}

// classRoomCount reports how many classrooms of the owner have a group index.
func (s *GroupStore) classRoomCount(ownerID uuid.UUID) int {
	var n int
	s.groups.read(ownerID, func(idx groupIndex) { n = len(idx) })
	return n
}
