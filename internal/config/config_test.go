package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskHierarchy/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.RepositoryInMemory, cfg.Repository.Type)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.Equal(t, int32(2), cfg.Database.MinConnections)
	assert.Equal(t, 5*time.Minute, cfg.Database.IdleTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Database.SlowQuery)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Audit.Interval)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://u:p@localhost:5432/tasks
  max_connections: 4
  min_connections: 1
  idle_timeout: 30s
  slow_query: 250ms
logging:
  development: true
repository:
  type: postgres
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.RepositoryPostgres, cfg.Repository.Type)
	assert.Equal(t, "postgres://u:p@localhost:5432/tasks", cfg.Database.URL)
	assert.Equal(t, int32(4), cfg.Database.MaxConnections)
	assert.Equal(t, 30*time.Second, cfg.Database.IdleTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.SlowQuery)
	assert.True(t, cfg.Logging.Development)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
repository:
  type: sqlite
sqlite:
  path: from-file.db
`)
	t.Setenv("TASKQUERY_SQLITE_PATH", "from-env.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.SQLite.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown repository", body: "repository:\n  type: mongo\n"},
		{name: "postgres without url", body: "repository:\n  type: postgres\n"},
		{name: "min above max", body: "database:\n  max_connections: 1\n  min_connections: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
