package dto

import (
	"time"

	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/google/uuid"
)

type LogTimeRequest struct {
	Minutes int `json:"minutes"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type UpdateCommentRequest struct {
	Text string `json:"text"`
}

type BulkUpdateRequest struct {
	IDs []uuid.UUID `json:"ids"`
	service.BulkUpdateInput
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// TaskResponse is the stored task plus fields derived at read time.
type TaskResponse struct {
	*task.Task
	IsOverdue bool `json:"is_overdue"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	return TaskResponse{
		Task:      t,
		IsOverdue: t.IsOverdue(now),
	}
}

func FromTaskList(tasks []*task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}
