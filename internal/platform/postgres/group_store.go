package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// PostgresGroupStore implements store.GroupStore on student_groups and
// group_members. Member order is kept in group_members.position.
type PostgresGroupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.GroupStore = (*PostgresGroupStore)(nil)

// NewPostgresGroupStore creates a group store on db.
// If logger is nil, a default logger will be used.
func NewPostgresGroupStore(db store.DBTX, logger *slog.Logger) *PostgresGroupStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGroupStore{
		db:     db,
		logger: logger.With(slog.String("component", "group_store")),
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

func insertMembers(ctx context.Context, q store.DBTX, g *domain.Group) error {
	for i, studentID := range g.MemberIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO group_members (group_id, position, student_id) VALUES ($1, $2, $3)`,
			g.ID, i, studentID,
		); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// CreateMultiple implements store.GroupStore.CreateMultiple.
func (s *PostgresGroupStore) CreateMultiple(ctx context.Context, groups []*domain.Group) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, g := range groups {
		if err := validateGroup(g); err != nil {
			log.Warn("group validation failed during create", slog.String("error", err.Error()))
			return err
		}
	}

	ids := make([]int64, len(groups))
	err := inTx(ctx, s.db, func(q store.DBTX) error {
		for i, g := range groups {
			if err := q.QueryRowContext(ctx,
				`INSERT INTO student_groups (owner_id, classroom_id, name) VALUES ($1, $2, $3) RETURNING id`,
				g.OwnerID, g.ClassRoomID, g.Name,
			).Scan(&ids[i]); err != nil {
				return MapError(err)
			}
			withID := *g
			withID.ID = ids[i]
			if err := insertMembers(ctx, q, &withID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create groups",
			slog.String("error", err.Error()),
			slog.Int("count", len(groups)))
		return store.NewStoreError("group", "create", "failed to create groups", err)
	}

	for i, g := range groups {
		g.ID = ids[i]
	}
	log.Debug("groups created", slog.Int("count", len(groups)))
	return nil
}

// GetByID implements store.GroupStore.GetByID.
func (s *PostgresGroupStore) GetByID(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) (*domain.Group, error) {
	groups, err := s.query(ctx,
		`SELECT id, name FROM student_groups WHERE owner_id = $1 AND classroom_id = $2 AND id = $3`,
		ownerID, classRoomID, id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, store.ErrGroupNotFound
	}
	return groups[0], nil
}

// ListByClassRoom implements store.GroupStore.ListByClassRoom.
func (s *PostgresGroupStore) ListByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) ([]*domain.Group, error) {
	return s.query(ctx,
		`SELECT id, name FROM student_groups WHERE owner_id = $1 AND classroom_id = $2 ORDER BY id`,
		ownerID, classRoomID)
}

// query loads groups selected by q, whose arguments must start with the owner
// and classroom ids, then fills in their members.
func (s *PostgresGroupStore) query(ctx context.Context, q string, args ...any) ([]*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		log.Error("failed to query groups", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	out := []*domain.Group{}
	for rows.Next() {
		g := &domain.Group{OwnerID: args[0].(uuid.UUID), ClassRoomID: args[1].(int64), MemberIDs: []int64{}}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, g := range out {
		if err := s.loadMembers(ctx, g); err != nil {
			log.Error("failed to load group members",
				slog.String("error", err.Error()),
				slog.Int64("group_id", g.ID))
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresGroupStore) loadMembers(ctx context.Context, g *domain.Group) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id FROM group_members WHERE group_id = $1 ORDER BY position`, g.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		g.MemberIDs = append(g.MemberIDs, id)
	}
	return rows.Err()
}

// Update implements store.GroupStore.Update.
func (s *PostgresGroupStore) Update(ctx context.Context, group *domain.Group) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateGroup(group); err != nil {
		return err
	}

	err := inTx(ctx, s.db, func(q store.DBTX) error {
		result, err := q.ExecContext(ctx,
			`UPDATE student_groups SET name = $1 WHERE id = $2 AND owner_id = $3 AND classroom_id = $4`,
			group.Name, group.ID, group.OwnerID, group.ClassRoomID)
		if err != nil {
			return MapError(err)
		}
		if err := checkRowsAffected(result, store.ErrGroupNotFound); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, group.ID); err != nil {
			return MapError(err)
		}
		return insertMembers(ctx, q, group)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		log.Error("failed to update group",
			slog.String("error", err.Error()),
			slog.Int64("group_id", group.ID))
		return store.NewStoreError("group", "update", "failed to update group", err)
	}
	return nil
}

// Delete implements store.GroupStore.Delete.
// Classrooms have no group index row, so removing the last group leaves
// nothing behind.
func (s *PostgresGroupStore) Delete(ctx context.Context, ownerID uuid.UUID, classRoomID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM student_groups WHERE id = $1 AND owner_id = $2 AND classroom_id = $3`,
		id, ownerID, classRoomID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete group",
			slog.String("error", err.Error()),
			slog.Int64("group_id", id))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrGroupNotFound)
}

// DeleteByClassRoom implements store.GroupStore.DeleteByClassRoom.
func (s *PostgresGroupStore) DeleteByClassRoom(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM student_groups WHERE owner_id = $1 AND classroom_id = $2`,
		ownerID, classRoomID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete classroom groups",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", classRoomID))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
