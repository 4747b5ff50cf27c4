package audit

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const table = "activity_log"

var columns = []string{"id", "actor_id", "actor_name", "action", "resource", "record_id", "created_at"}

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Insert(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	db     DB
	psql   sq.StatementBuilderType
}

func NewRepository(db DB, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert writes one entry to the activity log.
func (r *RepositoryImpl) Insert(ctx context.Context, e Entry) error {
	query, args, err := r.psql.Insert(table).
		Columns(columns...).
		Values(e.ID, e.ActorID, e.ActorName, e.Action, e.Resource, e.RecordID, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build activity insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Failed to insert activity", zap.Error(err), zap.String("resource", e.Resource))
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *RepositoryImpl) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return r.list(ctx, r.psql.Select(columns...).From(table), limit)
}

func (r *RepositoryImpl) list(ctx context.Context, b sq.SelectBuilder, limit int) ([]Entry, error) {
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	query, args, err := b.OrderBy("created_at DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build activity query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query activity", zap.Error(err))
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e         Entry
			id        uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &e.ActorID, &e.ActorName, &e.Action, &e.Resource, &e.RecordID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		e.ID = id
		e.CreatedAt = createdAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}
