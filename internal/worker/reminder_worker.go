package worker

import (
	"context"
	"fmt"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"
	"todoTracker/internal/repository"

	"go.uber.org/zap"
)

type Repository interface {
	Find(context.Context, repository.Filter, repository.Sort) ([]*task.Task, error)
	Save(context.Context, *task.Task) error
}

type Notifier interface {
	Publish(notify.Event)
}

// ReminderWorker fires due reminders. A reminder is cleared once it has been
// sent, so each one fires at most once.
type ReminderWorker struct {
	repo      Repository
	notifier  Notifier
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewReminderWorker(repo Repository, notifier Notifier, interval *time.Duration, batchSize *int) *ReminderWorker {
	intervalToSet := time.Minute
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}

	batchToSet := 100
	if batchSize != nil && *batchSize > 0 {
		batchToSet = *batchSize
	}

	return &ReminderWorker{
		repo:      repo,
		notifier:  notifier,
		interval:  intervalToSet,
		batchSize: batchToSet,
		now:       time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: reminder worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: reminder worker stopping")
			return
		}
	}
}

// Check sends every due reminder in one batch and returns how many were
// sent.
func (w *ReminderWorker) Check(ctx context.Context) int {
	start := w.now()

	tasks, err := w.dueReminders(ctx, start)
	if err != nil {
		logger.Warn("Worker: loading due reminders", zap.Error(err))
		return 0
	}

	sent := 0
	for _, t := range tasks {
		if err := w.fire(ctx, t, start); err != nil {
			logger.Warn("Worker: clearing reminder", zap.String("task_id", t.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	if len(tasks) > 0 {
		logger.Info("Worker: reminders sent",
			zap.Duration("ms", time.Since(start)),
			zap.Int("due", len(tasks)),
			zap.Int("sent", sent))
	}
	return sent
}

func (w *ReminderWorker) dueReminders(ctx context.Context, now time.Time) ([]*task.Task, error) {
	completed := false
	tasks, err := w.repo.Find(ctx, repository.Filter{
		ReminderBefore: &now,
		Completed:      &completed,
		Limit:          w.batchSize,
	}, repository.Sort{Field: repository.SortCreatedAt})
	if err != nil {
		return nil, fmt.Errorf("finding due reminders: %w", err)
	}
	return tasks, nil
}

// fire clears the reminder before publishing; a failed save must not lead
// to the same reminder being sent on every tick.
func (w *ReminderWorker) fire(ctx context.Context, t *task.Task, now time.Time) error {
	t.Reminder = nil
	if err := w.repo.Save(ctx, t); err != nil {
		return err
	}

	w.notifier.Publish(notify.Event{
		Kind:       notify.KindReminder,
		TaskID:     t.ID,
		TaskTitle:  t.Title,
		Recipients: t.Audience(""),
		At:         now,
	})
	return nil
}
