package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/store"
)

// PostgresAnnotationStore implements store.AnnotationStore.
type PostgresAnnotationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.AnnotationStore = (*PostgresAnnotationStore)(nil)

// NewPostgresAnnotationStore creates an annotation store on db.
// If logger is nil, a default logger will be used.
func NewPostgresAnnotationStore(db store.DBTX, logger *slog.Logger) *PostgresAnnotationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAnnotationStore{
		db:     db,
		logger: logger.With(slog.String("component", "annotation_store")),
	}
}

const annotationColumns = `id, owner_id, text, student_id, classroom_id, type, created_at`

func nullable(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func fromNullable(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (*domain.Annotation, error) {
	var a domain.Annotation
	var studentID, classRoomID sql.NullInt64
	var typ string
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Text, &studentID, &classRoomID, &typ, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.StudentID = fromNullable(studentID)
	a.ClassRoomID = fromNullable(classRoomID)
	a.Type = domain.AnnotationType(typ)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// Create implements store.AnnotationStore.Create.
func (s *PostgresAnnotationStore) Create(ctx context.Context, a *domain.Annotation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := a.Validate(); err != nil {
		log.Warn("annotation validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO annotations (owner_id, text, student_id, classroom_id, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		a.OwnerID, a.Text, nullable(a.StudentID), nullable(a.ClassRoomID), string(a.Type), a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		log.Error("failed to create annotation", slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("annotation created", slog.Int64("annotation_id", a.ID))
	return nil
}

// GetByID implements store.AnnotationStore.GetByID.
func (s *PostgresAnnotationStore) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*domain.Annotation, error) {
	a, err := scanAnnotation(s.db.QueryRowContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE id = $1 AND owner_id = $2`,
		id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAnnotationNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get annotation",
			slog.String("error", err.Error()),
			slog.Int64("annotation_id", id))
		return nil, MapError(err)
	}
	return a, nil
}

// Update implements store.AnnotationStore.Update.
func (s *PostgresAnnotationStore) Update(ctx context.Context, a *domain.Annotation) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE annotations SET text = $1, student_id = $2, classroom_id = $3, type = $4
		 WHERE id = $5 AND owner_id = $6`,
		a.Text, nullable(a.StudentID), nullable(a.ClassRoomID), string(a.Type), a.ID, a.OwnerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update annotation",
			slog.String("error", err.Error()),
			slog.Int64("annotation_id", a.ID))
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrAnnotationNotFound)
}

// Delete implements store.AnnotationStore.Delete.
func (s *PostgresAnnotationStore) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM annotations WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrAnnotationNotFound)
}

// Find implements store.AnnotationStore.Find.
func (s *PostgresAnnotationStore) Find(
	ctx context.Context,
	ownerID uuid.UUID,
	filter domain.AnnotationFilter,
) ([]*domain.Annotation, error) {
	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.ClassRoomID != nil {
		args = append(args, *filter.ClassRoomID)
		where = append(where, fmt.Sprintf("classroom_id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+annotationColumns+` FROM annotations WHERE `+strings.Join(where, " AND ")+` ORDER BY id`,
		args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find annotations",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteByStudentIDs implements store.AnnotationStore.DeleteByStudentIDs.
func (s *PostgresAnnotationStore) DeleteByStudentIDs(ctx context.Context, ownerID uuid.UUID, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{ownerID}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	return s.deleteWhere(ctx,
		`DELETE FROM annotations WHERE owner_id = $1 AND student_id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...)
}

// DeleteByClassRoomID implements store.AnnotationStore.DeleteByClassRoomID.
func (s *PostgresAnnotationStore) DeleteByClassRoomID(ctx context.Context, ownerID uuid.UUID, classRoomID int64) (int, error) {
	return s.deleteWhere(ctx,
		`DELETE FROM annotations WHERE owner_id = $1 AND classroom_id = $2`,
		ownerID, classRoomID)
}

func (s *PostgresAnnotationStore) deleteWhere(ctx context.Context, q string, args ...any) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		log.Error("failed to delete annotations", slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("annotations deleted", slog.Int64("count", n))
	return int(n), nil
}
