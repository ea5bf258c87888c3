package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"taskHierarchy/internal/app"
	"taskHierarchy/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			MaxConnections: 10,
			MinConnections: 2,
			SlowQuery:      100 * time.Millisecond,
			QueryTimeout:   5 * time.Second,
		},
		Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
		Audit:      config.AuditConfig{Interval: time.Minute},
	}
}

func TestApp_InMemory(t *testing.T) {
	a := app.New(baseConfig())
	require.NoError(t, a.Init(context.Background()))
	defer a.Shutdown()

	assert.NotNil(t, a.Service())
	assert.Equal(t, time.Minute, a.Worker().Interval())
	assert.ErrorIs(t, a.ApplySchema(), app.ErrSchemaUnsupported)

	tasks, err := a.Service().ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestApp_SQLite(t *testing.T) {
	cfg := baseConfig()
	cfg.Repository.Type = config.RepositorySQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "tasks.db")

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	defer a.Shutdown()

	require.NoError(t, a.ApplySchema())
	require.NoError(t, a.Service().ValidateHierarchy(context.Background()))
}

func TestApp_UnknownRepository(t *testing.T) {
	cfg := baseConfig()
	cfg.Repository.Type = "mongo"

	assert.Error(t, app.New(cfg).Init(context.Background()))
}

func TestApp_BrokenFixture(t *testing.T) {
	cfg := baseConfig()
	cfg.Repository.Fixture = filepath.Join(t.TempDir(), "missing.yml")

	assert.Error(t, app.New(cfg).Init(context.Background()))
}
