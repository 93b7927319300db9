package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// ManualGroup is one group of an explicit partition request.
type ManualGroup struct {
	Name      string
	MemberIDs []int64
}

// GroupService is the group partition engine. It creates student groups
// within a classroom and keeps their membership consistent with the roster.
type GroupService interface {
	// Random splits the whole roster into count groups of near-equal size
	// and stores them in creation order.
	Random(ctx context.Context, ownerID uuid.UUID, classRoomID int64, count int) ([]*domain.Group, error)

	// Manual validates the whole request before storing anything: every
	// group non-empty, every student used once across the request and
	// present on the roster.
	Manual(ctx context.Context, ownerID uuid.UUID, classRoomID int64, groups []ManualGroup) ([]*domain.Group, error)

	// Update adds and removes members and optionally renames the group.
	// An update that leaves the group empty deletes it, in which case the
	// returned group has no members.
	Update(
		ctx context.Context,
		ownerID uuid.UUID,
		classRoomID, groupID int64,
		u domain.MembershipUpdate,
	) (*domain.Group, error)

	Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, groupID int64) error
	Get(ctx context.Context, ownerID uuid.UUID, classRoomID, groupID int64) (*domain.Group, error)
	List(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Group, error)
}

const groupServiceName = "group"

type groupServiceImpl struct {
	classRooms store.ClassRoomStore
	groups     store.GroupStore
	partition  partition.Service
	locks      *KeyedMutex
	logger     *slog.Logger
}

// NewGroupService creates a GroupService. The lock table must be shared with
// the ClassRoomService working on the same stores.
func NewGroupService(
	classRooms store.ClassRoomStore,
	groups store.GroupStore,
	partitioner partition.Service,
	locks *KeyedMutex,
	logger *slog.Logger,
) (GroupService, error) {
	if classRooms == nil {
		return nil, nilDependency("classRooms")
	}
	if groups == nil {
		return nil, nilDependency("groups")
	}
	if partitioner == nil {
		return nil, nilDependency("partitioner")
	}
	if locks == nil {
		return nil, nilDependency("locks")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &groupServiceImpl{
		classRooms: classRooms,
		groups:     groups,
		partition:  partitioner,
		locks:      locks,
		logger:     logger.With(slog.String("component", "group_service")),
	}, nil
}

func (s *groupServiceImpl) Random(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	count int,
) ([]*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("classroom_id", classRoomID))

	unlock := s.locks.Lock(classRoomKey(ownerID, classRoomID))
	defer unlock()

	c, err := s.classRooms.GetByID(ctx, ownerID, classRoomID)
	if err != nil {
		return nil, s.failure(ctx, "random", err)
	}

	split, err := s.partition.Random(c.StudentIDs(), count)
	if err != nil {
		log.Debug("rejected random partition",
			slog.Int("count", count),
			slog.Int("roster_size", len(c.Students)),
			slog.String("error", err.Error()))
		return nil, err
	}

	groups := make([]*domain.Group, len(split))
	for i, members := range split {
		groups[i] = &domain.Group{
			OwnerID:     ownerID,
			ClassRoomID: classRoomID,
			MemberIDs:   members,
		}
	}
	if err := s.groups.CreateMultiple(ctx, groups); err != nil {
		return nil, s.failure(ctx, "random", err)
	}

	log.Info("created random groups", slog.Int("count", len(groups)))
	return groups, nil
}

func (s *groupServiceImpl) Manual(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID int64,
	requested []ManualGroup,
) ([]*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("classroom_id", classRoomID))

	unlock := s.locks.Lock(classRoomKey(ownerID, classRoomID))
	defer unlock()

	c, err := s.classRooms.GetByID(ctx, ownerID, classRoomID)
	if err != nil {
		return nil, s.failure(ctx, "manual", err)
	}

	memberSets := make([][]int64, len(requested))
	for i, g := range requested {
		memberSets[i] = g.MemberIDs
	}
	if err := s.partition.ValidateManual(c.StudentIDs(), memberSets); err != nil {
		log.Debug("rejected manual partition", slog.String("error", err.Error()))
		return nil, err
	}

	groups := make([]*domain.Group, len(requested))
	for i, g := range requested {
		groups[i] = &domain.Group{
			OwnerID:     ownerID,
			ClassRoomID: classRoomID,
			Name:        g.Name,
			MemberIDs:   append([]int64(nil), g.MemberIDs...),
		}
	}
	if err := s.groups.CreateMultiple(ctx, groups); err != nil {
		return nil, s.failure(ctx, "manual", err)
	}

	log.Info("created manual groups", slog.Int("count", len(groups)))
	return groups, nil
}

func (s *groupServiceImpl) Update(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID, groupID int64,
	u domain.MembershipUpdate,
) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).
		With(slog.Int64("classroom_id", classRoomID), slog.Int64("group_id", groupID))

	unlock := s.locks.Lock(classRoomKey(ownerID, classRoomID))
	defer unlock()

	c, err := s.classRooms.GetByID(ctx, ownerID, classRoomID)
	if err != nil {
		return nil, s.failure(ctx, "update", err)
	}
	g, err := s.groups.GetByID(ctx, ownerID, classRoomID, groupID)
	if err != nil {
		return nil, s.failure(ctx, "update", err)
	}

	if err := g.Apply(c, u); err != nil {
		log.Debug("rejected group update", slog.String("error", err.Error()))
		return nil, err
	}

	if len(g.MemberIDs) == 0 {
		if err := s.groups.Delete(ctx, ownerID, classRoomID, groupID); err != nil {
			return nil, s.failure(ctx, "update", err)
		}
		log.Info("deleted emptied group")
		return g, nil
	}
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, s.failure(ctx, "update", err)
	}

	log.Debug("updated group", slog.Int("members", len(g.MemberIDs)))
	return g, nil
}

func (s *groupServiceImpl) Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, groupID int64) error {
	unlock := s.locks.Lock(classRoomKey(ownerID, classRoomID))
	defer unlock()

	if err := s.groups.Delete(ctx, ownerID, classRoomID, groupID); err != nil {
		return s.failure(ctx, "delete", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).
		Info("deleted group", slog.Int64("classroom_id", classRoomID), slog.Int64("group_id", groupID))
	return nil
}

func (s *groupServiceImpl) Get(
	ctx context.Context,
	ownerID uuid.UUID,
	classRoomID, groupID int64,
) (*domain.Group, error) {
	g, err := s.groups.GetByID(ctx, ownerID, classRoomID, groupID)
	if err != nil {
		return nil, s.failure(ctx, "get", err)
	}
	return g, nil
}

func (s *groupServiceImpl) List(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Group, error) {
	if _, err := s.classRooms.GetByID(ctx, ownerID, classRoomID); err != nil {
		return nil, s.failure(ctx, "list", err)
	}
	groups, err := s.groups.ListByClassRoom(ctx, ownerID, classRoomID)
	if err != nil {
		return nil, s.failure(ctx, "list", err)
	}
	return groups, nil
}

func (s *groupServiceImpl) failure(ctx context.Context, op string, err error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if store.IsNotFoundError(err) || domain.IsNotFound(err) {
		log.Debug("group or classroom not found", slog.String("operation", op))
	} else {
		log.Error("group store failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
	}
	return wrapStoreError(groupServiceName, op, err)
}
