package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// PostgresClassRoomStore implements store.ClassRoomStore. A classroom is one
// row in classrooms plus its rows in seating_tables and students; Save
// rewrites the child rows inside a single transaction.
type PostgresClassRoomStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ClassRoomStore = (*PostgresClassRoomStore)(nil)

// NewPostgresClassRoomStore creates a classroom store on db.
// If logger is nil, a default logger will be used.
func NewPostgresClassRoomStore(db store.DBTX, logger *slog.Logger) *PostgresClassRoomStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresClassRoomStore{
		db:     db,
		logger: logger.With(slog.String("component", "classroom_store")),
	}
}

// Save implements store.ClassRoomStore.Save.
// Ids are written back into c only after the transaction commits.
func (s *PostgresClassRoomStore) Save(ctx context.Context, c *domain.ClassRoom) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := c.Validate(); err != nil {
		log.Warn("classroom validation failed during save",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", c.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	next := c.Clone()
	err := inTx(ctx, s.db, func(q store.DBTX) error {
		if err := upsertClassRoom(ctx, q, next); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM students WHERE classroom_id = $1`, next.ID); err != nil {
			return MapError(err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM seating_tables WHERE classroom_id = $1`, next.ID); err != nil {
			return MapError(err)
		}
		for i := range next.Tables {
			if err := insertTable(ctx, q, next.ID, i, &next.Tables[i]); err != nil {
				return err
			}
		}
		for i := range next.Students {
			if err := insertStudent(ctx, q, next.ID, i, &next.Students[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("classroom not found for save", slog.Int64("classroom_id", c.ID))
			return err
		}
		log.Error("failed to save classroom",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", c.ID))
		return store.NewStoreError("classroom", "save", "failed to save classroom", err)
	}

	*c = *next
	log.Debug("classroom saved",
		slog.Int64("classroom_id", c.ID),
		slog.Int("students", len(c.Students)),
		slog.Int("tables", len(c.Tables)))
	return nil
}

func upsertClassRoom(ctx context.Context, q store.DBTX, c *domain.ClassRoom) error {
	if c.ID == 0 {
		err := q.QueryRowContext(ctx,
			`INSERT INTO classrooms (owner_id, name) VALUES ($1, $2) RETURNING id`,
			c.OwnerID, c.Name,
		).Scan(&c.ID)
		return MapError(err)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE classrooms SET name = $1, updated_at = NOW() WHERE id = $2 AND owner_id = $3`,
		c.Name, c.ID, c.OwnerID,
	)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrClassRoomNotFound)
}

func insertTable(ctx context.Context, q store.DBTX, classRoomID int64, position int, t *domain.Table) error {
	if t.ID == 0 {
		err := q.QueryRowContext(ctx,
			`INSERT INTO seating_tables (classroom_id, position, x, y) VALUES ($1, $2, $3, $4) RETURNING id`,
			classRoomID, position, t.X, t.Y,
		).Scan(&t.ID)
		return MapError(err)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO seating_tables (id, classroom_id, position, x, y) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, classRoomID, position, t.X, t.Y,
	)
	return MapError(err)
}

func insertStudent(ctx context.Context, q store.DBTX, classRoomID int64, position int, st *domain.Student) error {
	var seat sql.NullInt64
	if st.TableID != nil {
		seat = sql.NullInt64{Int64: *st.TableID, Valid: true}
	}
	if st.ID == 0 {
		err := q.QueryRowContext(ctx,
			`INSERT INTO students (classroom_id, position, first_name, last_name, table_id)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			classRoomID, position, st.FirstName, st.LastName, seat,
		).Scan(&st.ID)
		return MapError(err)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO students (id, classroom_id, position, first_name, last_name, table_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		st.ID, classRoomID, position, st.FirstName, st.LastName, seat,
	)
	return MapError(err)
}

// GetByID implements store.ClassRoomStore.GetByID.
func (s *PostgresClassRoomStore) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.ClassRoom, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	c := &domain.ClassRoom{OwnerID: ownerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM classrooms WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("classroom not found", slog.Int64("classroom_id", id))
			return nil, store.ErrClassRoomNotFound
		}
		log.Error("failed to get classroom",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", id))
		return nil, MapError(err)
	}

	if err := s.loadChildren(ctx, c); err != nil {
		log.Error("failed to load classroom children",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", id))
		return nil, err
	}
	return c, nil
}

func (s *PostgresClassRoomStore) loadChildren(ctx context.Context, c *domain.ClassRoom) error {
	c.Tables = []domain.Table{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, x, y FROM seating_tables WHERE classroom_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return MapError(err)
	}
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.X, &t.Y); err != nil {
			_ = rows.Close()
			return err
		}
		c.Tables = append(c.Tables, t)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	c.Students = []domain.Student{}
	rows, err = s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name, table_id FROM students WHERE classroom_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var st domain.Student
		var seat sql.NullInt64
		if err := rows.Scan(&st.ID, &st.FirstName, &st.LastName, &seat); err != nil {
			return err
		}
		if seat.Valid {
			id := seat.Int64
			st.TableID = &id
		}
		c.Students = append(c.Students, st)
	}
	return rows.Err()
}

// ListByOwner implements store.ClassRoomStore.ListByOwner.
func (s *PostgresClassRoomStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ClassRoom, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM classrooms WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		log.Error("failed to list classrooms", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	out := []*domain.ClassRoom{}
	for rows.Next() {
		c := &domain.ClassRoom{OwnerID: ownerID}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range out {
		if err := s.loadChildren(ctx, c); err != nil {
			log.Error("failed to load classroom children",
				slog.String("error", err.Error()),
				slog.Int64("classroom_id", c.ID))
			return nil, err
		}
	}
	return out, nil
}

// Delete implements store.ClassRoomStore.Delete.
// Students and tables go with the classroom through ON DELETE CASCADE.
func (s *PostgresClassRoomStore) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM classrooms WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete classroom",
			slog.String("error", err.Error()),
			slog.Int64("classroom_id", id))
		return MapError(err)
	}
	if err := checkRowsAffected(result, store.ErrClassRoomNotFound); err != nil {
		return err
	}

	log.Info("classroom deleted", slog.Int64("classroom_id", id))
	return nil
}
