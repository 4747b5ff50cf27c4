// Package audit records every successful mutation made through the console.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
	"github.com/FACorreiaa/mixdesk-admin/internal/app/observability/metrics"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionToggle Action = "toggle"
	ActionDelete Action = "delete"
	ActionUpload Action = "upload"
)

type Entry struct {
	ID        uuid.UUID
	ActorID   int64
	ActorName string
	Action    string
	Resource  string
	RecordID  string
	CreatedAt time.Time
}

// NewEntry stamps an entry for the staff member in sess.
func NewEntry(sess models.Session, action Action, resource, recordID string) Entry {
	return Entry{
		ID:        uuid.New(),
		ActorID:   sess.ID,
		ActorName: sess.Name,
		Action:    string(action),
		Resource:  resource,
		RecordID:  recordID,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder is what handlers report mutations to.
type Recorder interface {
	Record(ctx context.Context, e Entry)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Enabled() bool
}

// Service stores entries in Postgres. Write failures are logged and counted, never
// returned: the mutation already happened on the backend.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, e Entry) {
	// the request may be gone by the time the insert runs
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.Insert(ctx, e); err != nil {
		metrics.IncAuditError(ctx)
		s.logger.Warn("Activity not recorded",
			zap.Error(err),
			zap.String("action", e.Action),
			zap.String("resource", e.Resource),
			zap.String("record_id", e.RecordID))
	}
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.repo.Recent(ctx, limit)
}

func (s *Service) Enabled() bool { return true }

// LogRecorder is used when no audit database is configured: entries only go to the log.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (l *LogRecorder) Record(_ context.Context, e Entry) {
	l.logger.Info("Activity",
		zap.String("id", e.ID.String()),
		zap.Int64("actor_id", e.ActorID),
		zap.String("actor_name", e.ActorName),
		zap.String("action", e.Action),
		zap.String("resource", e.Resource),
		zap.String("record_id", e.RecordID))
}

func (l *LogRecorder) Recent(context.Context, int) ([]Entry, error) {
	return nil, nil
}

func (l *LogRecorder) Enabled() bool { return false }
