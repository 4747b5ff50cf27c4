package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/mixdesk-admin/internal/pkg/config"
)

func TestNewDatabaseConfig(t *testing.T) {
	cfg := &config.Config{Repositories: config.RepositoriesConfig{Postgres: config.PostgresConfig{
		Host: "db", Port: "5432", DB: "mixdesk", Username: "app", Password: "p@ss",
	}}}

	dbCfg, err := NewDatabaseConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "postgresql://app:p%40ss@db:5432/mixdesk?sslmode=disable&timezone=utc", dbCfg.ConnectionURL)

	_, err = NewDatabaseConfig(&config.Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunMigrationsRejectsScheme(t *testing.T) {
	err := RunMigrations("mysql://root@localhost/db", zap.NewNop())
	assert.ErrorContains(t, err, "invalid database URL scheme")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
