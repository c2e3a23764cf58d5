package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  request_timeout: 10s
  cors_origins: ["https://app.example.com"]
repository:
  type: sqlite
sqlite:
  path: /tmp/todo.db
auth:
  jwt_secret: `+secret+`
rate_limit:
  requests: 5
  window: 1s
tasks:
  timezone: UTC
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CorsOrigins)
	assert.Equal(t, RepositorySQLite, cfg.Repository.Type)
	assert.Equal(t, "/tmp/todo.db", cfg.SQLite.Path)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)

	// untouched keys keep their defaults
	assert.Equal(t, 10000, cfg.RateLimit.MaxClients)
	assert.Equal(t, 10, cfg.RateLimit.AuthFailures)
	assert.Equal(t, 32, cfg.Tasks.MaxSubtaskDepth)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int32(10), cfg.Database.MaxConnections)
	assert.True(t, cfg.Worker.Enabled)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "repository:\n  type: inmemory\n")
	t.Setenv("TODO_AUTH_JWT_SECRET", secret)
	t.Setenv("TODO_REPOSITORY_TYPE", "postgres")
	t.Setenv("TODO_DATABASE_URL", "postgres://u:p@localhost:5432/todo")
	t.Setenv("TODO_WORKER_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RepositoryPostgres, cfg.Repository.Type)
	assert.Equal(t, "postgres://u:p@localhost:5432/todo", cfg.Database.URL)
	assert.Equal(t, 30*time.Second, cfg.Worker.Interval)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"short secret", "auth:\n  jwt_secret: short\n", "jwt_secret"},
		{"unknown repository", "auth:\n  jwt_secret: " + secret + "\nrepository:\n  type: mongo\n", "unknown repository.type"},
		{"postgres without url", "auth:\n  jwt_secret: " + secret + "\nrepository:\n  type: postgres\n", "database.url"},
		{"firestore without project", "auth:\n  jwt_secret: " + secret + "\nrepository:\n  type: firestore\n", "project_id"},
		{"bad timezone", "auth:\n  jwt_secret: " + secret + "\ntasks:\n  timezone: Mars/Olympus\n", "tasks.timezone"},
		{"broken yaml", "server: [", "reading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit path must exist")
}
