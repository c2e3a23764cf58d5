package handlers

import (
	"context"

	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/google/uuid"
)

// Service is everything the HTTP layer needs from the lifecycle manager.
type Service interface {
	HealthCheck(ctx context.Context) error

	CreateTask(ctx context.Context, ownerID string, in service.CreateTaskInput) (*task.Task, error)
	GetTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, actorID string, patch task.TaskPatch) (*task.Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	IncompleteTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	LogTime(ctx context.Context, id uuid.UUID, actorID string, minutes int) (*task.Task, error)
	ArchiveTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	UnarchiveTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, actorID string) error
	RestoreTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)
	DuplicateTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error)

	AddSubtask(ctx context.Context, taskID uuid.UUID, actorID string, in service.AddSubtaskInput) (*task.Task, error)
	UpdateSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string, patch task.SubtaskPatch) (*task.Task, error)
	ToggleSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string) (*task.Task, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string) (*task.Task, error)

	AddComment(ctx context.Context, taskID uuid.UUID, actorID string, in service.CommentInput) (*task.Task, error)
	UpdateComment(ctx context.Context, taskID, commentID uuid.UUID, actorID, text string) (*task.Task, error)
	DeleteComment(ctx context.Context, taskID, commentID uuid.UUID, actorID string) (*task.Task, error)
	AddAttachment(ctx context.Context, taskID uuid.UUID, actorID string, in service.AttachmentInput) (*task.Task, error)
	DeleteAttachment(ctx context.Context, taskID, attachmentID uuid.UUID, actorID string) (*task.Task, error)

	ShareTask(ctx context.Context, taskID uuid.UUID, actorID string, in service.ShareInput) (*task.Task, error)
	RevokeShare(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error)
	AddWatcher(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error)
	RemoveWatcher(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error)
	AssignTask(ctx context.Context, taskID uuid.UUID, actorID, assigneeID string) (*task.Task, error)
	UnassignTask(ctx context.Context, taskID uuid.UUID, actorID string) (*task.Task, error)

	BulkUpdate(ctx context.Context, actorID string, ids []uuid.UUID, in service.BulkUpdateInput) (int, error)
	BulkDelete(ctx context.Context, actorID string, ids []uuid.UUID) (int, error)

	ListTasks(ctx context.Context, ownerID string, q service.ListQuery) ([]*task.Task, error)
	TasksByStatus(ctx context.Context, ownerID string, status task.Status) ([]*task.Task, error)
	TasksByPriority(ctx context.Context, ownerID string, priority task.Priority) ([]*task.Task, error)
	TasksByTag(ctx context.Context, ownerID, tag string) ([]*task.Task, error)
	SearchTasks(ctx context.Context, ownerID, query string) ([]*task.Task, error)
	OverdueTasks(ctx context.Context, ownerID string) ([]*task.Task, error)
	DueTodayTasks(ctx context.Context, ownerID string) ([]*task.Task, error)
	ArchivedTasks(ctx context.Context, ownerID string) ([]*task.Task, error)
	Categories(ctx context.Context, ownerID string) ([]string, error)
	Tags(ctx context.Context, ownerID string) ([]string, error)
	Stats(ctx context.Context, ownerID string) (*service.Stats, error)
}
