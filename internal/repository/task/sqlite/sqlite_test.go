package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/repository/repotest"
	"todoTracker/internal/repository/task/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Every test gets its own database file.
func TestStorage_Behaviour(t *testing.T) {
	dir := t.TempDir()
	var current *sqlite.Storage
	t.Cleanup(func() {
		if current != nil {
			current.Close()
		}
	})

	s := &repotest.TaskRepoSuite{}
	n := 0
	s.Reset = func() error {
		if current != nil {
			current.Close()
		}
		n++
		storage, err := sqlite.New(context.Background(), filepath.Join(dir, fmt.Sprintf("tasks-%d.db", n)))
		if err != nil {
			return err
		}
		current = storage
		s.Repo = storage
		return nil
	}
	suite.Run(t, s)
}

func TestStorage_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "todo.db")

	first, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	created := task.New("u1", "Survives restart", time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, first.Create(ctx, created))
	first.Close()

	second, err := sqlite.New(ctx, path)
	require.NoError(t, err, "migrations must be re-runnable")
	defer second.Close()

	got, err := second.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Survives restart", got.Title)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}
