package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/repotest"
	"todoTracker/internal/repository/task/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func newTask(owner, title string) *task.Task {
	return task.New(owner, title, time.Now())
}

// TestTaskStorage_CreateAndGet checks a created task can be read back
func TestTaskStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	tk := newTask("u1", "Test Task")
	tk.Subtasks = []task.Subtask{{ID: uuid.New(), Title: "child", Subtasks: []task.Subtask{}}}
	require.NoError(t, storage.Create(ctx, tk))

	got, err := storage.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Task", got.Title)
	assert.Len(t, got.Subtasks, 1)

	_, err = storage.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Error(t, storage.Create(ctx, tk), "duplicate id")
}

// TestTaskStorage_Isolation checks callers never share memory with the store
func TestTaskStorage_Isolation(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	tk := newTask("u1", "Original")
	require.NoError(t, storage.Create(ctx, tk))

	loaded, err := storage.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	loaded.Title = "Mutated but not saved"
	tk.Title = "Also mutated"

	again, err := storage.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
}

// TestTaskStorage_Save checks whole-document replacement and versioning
func TestTaskStorage_Save(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	tk := newTask("u1", "Original")
	require.NoError(t, storage.Create(ctx, tk))

	first, _ := storage.GetByID(ctx, tk.ID)
	second, _ := storage.GetByID(ctx, tk.ID)

	first.Title = "first writer"
	first.Description = "only first sets this"
	require.NoError(t, storage.Save(ctx, first))
	assert.Equal(t, 1, first.Version)
	assert.NotNil(t, first.UpdatedAt)

	second.Title = "second writer"
	require.NoError(t, storage.Save(ctx, second))

	got, err := storage.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "second writer", got.Title)
	assert.Empty(t, got.Description, "last writer overwrites the whole document")

	missing := newTask("u1", "never created")
	assert.ErrorIs(t, storage.Save(ctx, missing), repository.ErrNotFound)
}

// TestTaskStorage_FindAndCount checks predicates, soft delete exclusion and ordering
func TestTaskStorage_FindAndCount(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	base := time.Now()
	for i := 0; i < 5; i++ {
		tk := task.New("u1", fmt.Sprintf("Task %d", i), base.Add(time.Duration(i)*time.Minute))
		if i == 4 {
			tk.IsDeleted = true
		}
		require.NoError(t, storage.Create(ctx, tk))
	}
	require.NoError(t, storage.Create(ctx, newTask("u2", "Foreign")))

	tasks, err := storage.Find(ctx, repository.Filter{OwnerID: "u1"}, repository.Sort{Field: repository.SortCreatedAt})
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, "Task 0", tasks[0].Title)

	page, err := storage.Find(ctx, repository.Filter{OwnerID: "u1", Limit: 2, Offset: 2}, repository.Sort{Field: repository.SortCreatedAt})
	require.NoError(t, err)
	assert.Equal(t, []string{"Task 2", "Task 3"}, []string{page[0].Title, page[1].Title})

	n, err := storage.Count(ctx, repository.Filter{OwnerID: "u1", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

// TestTaskStorage_UpdateMany checks the batch only touches matching documents
func TestTaskStorage_UpdateMany(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	mine1, mine2, foreign := newTask("u1", "a"), newTask("u1", "b"), newTask("u2", "c")
	for _, tk := range []*task.Task{mine1, mine2, foreign} {
		require.NoError(t, storage.Create(ctx, tk))
	}

	urgent := task.PriorityUrgent
	n, err := storage.UpdateMany(ctx,
		repository.Filter{OwnerID: "u1", IDs: []uuid.UUID{mine1.ID, foreign.ID}},
		repository.BulkPatch{Priority: &urgent, At: time.Now()},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := storage.GetByID(ctx, mine1.ID)
	assert.Equal(t, task.PriorityUrgent, got.Priority)
	got, _ = storage.GetByID(ctx, foreign.ID)
	assert.Equal(t, task.PriorityMedium, got.Priority)

	n, err = storage.UpdateMany(ctx, repository.Filter{OwnerID: "u1"}, repository.BulkPatch{Delete: true, At: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := storage.Count(ctx, repository.Filter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err = storage.GetByID(ctx, mine2.ID)
	require.NoError(t, err, "soft deleted tasks stay addressable by id")
	assert.True(t, got.IsDeleted)
}

// TestTaskStorage_Distinct checks category and tag aggregation
func TestTaskStorage_Distinct(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()

	a := newTask("u1", "a")
	a.Category, a.Tags = "work", []string{"x", "y"}
	b := newTask("u1", "b")
	b.Tags = []string{"y", "z"}
	require.NoError(t, storage.Create(ctx, a))
	require.NoError(t, storage.Create(ctx, b))

	cats, err := storage.Distinct(ctx, repository.FieldCategory, repository.Filter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "work"}, cats)

	tags, err := storage.Distinct(ctx, repository.FieldTags, repository.Filter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, tags)
}

// TestTaskStorage_ConcurrentAccess checks concurrent creates and reads
func TestTaskStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewTaskStorage()
	taskCount := 100
	goroutines := 10

	var wg sync.WaitGroup
	errs := make(chan error, taskCount)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := 0; j < taskCount/goroutines; j++ {
				if err := storage.Create(ctx, newTask("u1", fmt.Sprintf("Task %d-%d", workerID, j))); err != nil {
					errs <- err
				}
				if _, err := storage.Count(ctx, repository.Filter{OwnerID: "u1"}); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	n, err := storage.Count(ctx, repository.Filter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, taskCount, n)
}

func TestTaskStorage_HealthCheck(t *testing.T) {
	assert.NoError(t, inmemory.NewTaskStorage().HealthCheck(context.Background()))
}

// TestTaskStorage_Behaviour runs the behaviour shared by every backend
func TestTaskStorage_Behaviour(t *testing.T) {
	s := &repotest.TaskRepoSuite{}
	s.Reset = func() error {
		s.Repo = inmemory.NewTaskStorage()
		return nil
	}
	suite.Run(t, s)
}
