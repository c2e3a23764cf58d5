package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"
	"todoTracker/internal/repository"
	"todoTracker/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mtx    sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(e notify.Event) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, e)
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newWorker(repo Repository, n Notifier) *ReminderWorker {
	w := NewReminderWorker(repo, n, nil, nil)
	w.now = func() time.Time { return now }
	return w
}

func TestNewReminderWorker_Defaults(t *testing.T) {
	w := NewReminderWorker(nil, nil, nil, nil)
	assert.Equal(t, time.Minute, w.interval)
	assert.Equal(t, 100, w.batchSize)

	interval, batch := 5*time.Second, 10
	w = NewReminderWorker(nil, nil, &interval, &batch)
	assert.Equal(t, 5*time.Second, w.interval)
	assert.Equal(t, 10, w.batchSize)
}

func TestReminderWorker_Check(t *testing.T) {
	ctx := context.Background()
	repo := inmemory.NewTaskStorage()
	rec := &recorder{}

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due := task.New("owner", "Water plants", now.Add(-time.Hour), task.WithReminder(&past))
	due.AssignedTo = "helper"
	due.Watchers = []string{"watcher", "owner"}
	later := task.New("owner", "Later", now.Add(-time.Hour), task.WithReminder(&future))
	done := task.New("owner", "Done already", now.Add(-time.Hour), task.WithReminder(&past))
	done.Completed = true
	done.Status = task.StatusCompleted

	for _, tk := range []*task.Task{due, later, done} {
		require.NoError(t, repo.Create(ctx, tk))
	}

	w := newWorker(repo, rec)
	assert.Equal(t, 1, w.Check(ctx))

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, notify.KindReminder, e.Kind)
	assert.Equal(t, due.ID, e.TaskID)
	assert.Equal(t, []string{"owner", "helper", "watcher"}, e.Recipients)

	stored, err := repo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Reminder)

	// a reminder fires once
	assert.Equal(t, 0, w.Check(ctx))
	assert.Len(t, rec.events, 1)
}

type failingRepo struct {
	tasks   []*task.Task
	findErr error
	saveErr error
}

func (r *failingRepo) Find(context.Context, repository.Filter, repository.Sort) ([]*task.Task, error) {
	return r.tasks, r.findErr
}

func (r *failingRepo) Save(context.Context, *task.Task) error {
	return r.saveErr
}

func TestReminderWorker_Failures(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}

	w := newWorker(&failingRepo{findErr: errors.New("connection reset")}, rec)
	assert.Equal(t, 0, w.Check(ctx))

	past := now.Add(-time.Minute)
	w = newWorker(&failingRepo{
		tasks:   []*task.Task{task.New("owner", "Pay bills", now, task.WithReminder(&past))},
		saveErr: errors.New("write failed"),
	}, rec)
	assert.Equal(t, 0, w.Check(ctx))
	assert.Empty(t, rec.events, "nothing is sent when the reminder cannot be cleared")
}

func TestReminderWorker_StartStopsOnCancel(t *testing.T) {
	interval := time.Millisecond
	w := NewReminderWorker(inmemory.NewTaskStorage(), &recorder{}, &interval, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
