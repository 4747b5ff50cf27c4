package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, zap.NewNop()), mock
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRepositoryInsert(t *testing.T) {
	repo, mock := newMockRepo(t)
	e := NewEntry(models.Session{ID: 4, Name: "Ana"}, ActionDelete, "users", "12")

	mock.ExpectExec(`INSERT INTO activity_log \(id,actor_id,actor_name,action,resource,record_id,created_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)`).
		WithArgs(e.ID, int64(4), "Ana", "delete", "users", "12", e.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO activity_log`).
		WithArgs(anyArgs(7)...).
		WillReturnError(errors.New("connection reset"))

	err := repo.Insert(context.Background(), NewEntry(models.Session{ID: 1}, ActionCreate, "tags", "3"))
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryRecent(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	id := uuid.New()

	rows := pgxmock.NewRows(columns).
		AddRow(id, int64(1), "Ana", "create", "users", "7", now)
	mock.ExpectQuery(`SELECT id, actor_id, actor_name, action, resource, record_id, created_at FROM activity_log ORDER BY created_at DESC LIMIT 50`).
		WillReturnRows(rows)

	entries, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "Ana", entries[0].ActorName)
	assert.Equal(t, now, entries[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecordSwallowsErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO activity_log`).
		WithArgs(anyArgs(7)...).
		WillReturnError(errors.New("db down"))

	svc := NewService(repo, zap.NewNop())
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), NewEntry(models.Session{ID: 1}, ActionToggle, "blog", "9"))
	})
	assert.True(t, svc.Enabled())
	assert.NoError(t, mock.ExpectationsWereMet())
}
