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

// ClassRoomStore keeps classroom aggregates in memory.
type ClassRoomStore struct {
	rooms     *partitions[map[int64]*domain.ClassRoom]
	classSeq  atomic.Int64
	personSeq atomic.Int64
	tableSeq  atomic.Int64
	logger    *slog.Logger
}

var _ store.ClassRoomStore = (*ClassRoomStore)(nil)

// NewClassRoomStore creates an empty store. A nil logger uses slog.Default().
func NewClassRoomStore(logger *slog.Logger) *ClassRoomStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassRoomStore{
		rooms: newPartitions(func() map[int64]*domain.ClassRoom {
			return make(map[int64]*domain.ClassRoom)
		}),
		logger: logger.With(slog.String("component", "memory_classroom_store")),
	}
}

// Save implements store.ClassRoomStore.
func (s *ClassRoomStore) Save(ctx context.Context, c *domain.ClassRoom) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := c.Validate(); err != nil {
		log.Debug("rejected invalid classroom", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	return s.rooms.write(c.OwnerID, func(rooms map[int64]*domain.ClassRoom) error {
		if c.ID != 0 {
			if _, ok := rooms[c.ID]; !ok {
				return store.ErrClassRoomNotFound
			}
		}

		if c.ID == 0 {
			c.ID = s.classSeq.Add(1)
		}
		for i := range c.Tables {
			if c.Tables[i].ID == 0 {
				c.Tables[i].ID = s.tableSeq.Add(1)
			}
		}
		for i := range c.Students {
			if c.Students[i].ID == 0 {
				c.Students[i].ID = s.personSeq.Add(1)
			}
		}

		rooms[c.ID] = c.Clone()
		log.Debug("classroom saved",
			slog.Int64("classroom_id", c.ID),
			slog.Int("students", len(c.Students)),
			slog.Int("tables", len(c.Tables)))
		return nil
	})
}

// GetByID implements store.ClassRoomStore.
func (s *ClassRoomStore) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error) {
	var found *domain.ClassRoom
	s.rooms.read(ownerID, func(rooms map[int64]*domain.ClassRoom) {
		if c, ok := rooms[id]; ok {
			found = c.Clone()
		}
	})
	if found == nil {
		return nil, store.ErrClassRoomNotFound
	}
	return found, nil
}

// ListByOwner implements store.ClassRoomStore.
func (s *ClassRoomStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error) {
	out := []*domain.ClassRoom{}
	s.rooms.read(ownerID, func(rooms map[int64]*domain.ClassRoom) {
		for _, c := range rooms {
			out = append(out, c.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete implements store.ClassRoomStore.
func (s *ClassRoomStore) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	return s.rooms.write(ownerID, func(rooms map[int64]*domain.ClassRoom) error {
		if _, ok := rooms[id]; !ok {
			return store.ErrClassRoomNotFound
		}
		delete(rooms, id)
		logger.FromContextOrDefault(ctx, s.logger).Debug("classroom deleted",
			slog.Int64("classroom_id", id))
		return nil
	})
}
