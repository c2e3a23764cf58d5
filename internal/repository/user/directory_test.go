package user_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"todoTracker/internal/repository/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
users:
  - id: u1
    name: Ann
    email: ann@example.com
  - id: " u2 "
    name: Bob
`)

	d, err := user.Load(path)
	require.NoError(t, err)

	ctx := context.Background()
	tests := []struct {
		id   string
		want bool
	}{
		{"u1", true},
		{"u2", true},
		{"u3", false},
		{"", false},
		{"   ", false},
	}
	for _, tt := range tests {
		ok, err := d.Exists(ctx, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "id %q", tt.id)
	}

	ann, ok := d.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", ann.Email)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"broken yaml", "users: [", "parsing user directory"},
		{"missing id", "users:\n  - name: Ann\n", "has no id"},
		{"duplicate id", "users:\n  - id: u1\n  - id: u1\n", "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := user.Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}

	_, err := user.Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestReload_KeepsContentsOnError(t *testing.T) {
	path := writeFile(t, "users:\n  - id: u1\n")
	d, err := user.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("users: ["), 0o600))
	assert.Error(t, d.Reload(path))

	ok, err := d.Exists(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenDirectory(t *testing.T) {
	d := user.NewOpenDirectory()
	ctx := context.Background()

	ok, err := d.Exists(ctx, "anyone")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Exists(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.Exists(cancelled, "anyone")
	assert.ErrorIs(t, err, context.Canceled)
}
