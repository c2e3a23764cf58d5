package service

import (
	"context"

	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"
	"todoTracker/internal/repository"

	"github.com/google/uuid"
)

// TaskRepository is the document store the lifecycle manager persists to.
// Save is one atomic whole-document write; the last writer wins.
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Save(context.Context, *task.Task) error
	Find(context.Context, repository.Filter, repository.Sort) ([]*task.Task, error)
	UpdateMany(context.Context, repository.Filter, repository.BulkPatch) (int, error)
	Count(context.Context, repository.Filter) (int, error)
	Distinct(context.Context, string, repository.Filter) ([]string, error)
}

// UserDirectory answers whether a user id is known.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Notifier delivers events without blocking the caller. Failures are its
// own business.
type Notifier interface {
	Publish(notify.Event)
}
