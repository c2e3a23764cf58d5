package handlers

import (
	"context"
	"net/http"
	"time"

	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	service Service
	now     func() time.Time
}

func NewTaskHandler(taskService Service) *TaskHandler {
	return &TaskHandler{
		service: taskService,
		now:     time.Now,
	}
}

func actor(r *http.Request) string {
	return middleware.UserID(r.Context())
}

func (h *TaskHandler) respondTask(w http.ResponseWriter, r *http.Request, code int, op string, t *task.Task, err error) {
	if err != nil {
		handleError(w, r, op, err)
		return
	}
	logger.Debug("HTTP_OUT: task returned",
		zap.String("operation", op),
		zap.String("task_id", t.ID.String()),
		zap.Int("http_status", code))
	responseWithJSON(w, code, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) respondTasks(w http.ResponseWriter, r *http.Request, op string, tasks []*task.Task, err error) {
	if err != nil {
		handleError(w, r, op, err)
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks, h.now())),
		toPayload("count", len(tasks)),
	)
}

// taskAction serves the operations that need nothing but the task id and
// the actor.
func (h *TaskHandler) taskAction(op string, fn func(context.Context, uuid.UUID, string) (*task.Task, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		t, err := fn(r.Context(), id, actor(r))
		h.respondTask(w, r, http.StatusOK, op, t, err)
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("service", "todo-tracker"),
		)
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "healthy"),
		toPayload("service", "todo-tracker"),
	)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in service.CreateTaskInput
	if !decodeBody(w, r, &in) {
		return
	}

	t, err := h.service.CreateTask(r.Context(), actor(r), in)
	if err == nil {
		logger.Info("HTTP_OUT: task created",
			zap.String("task_id", t.ID.String()),
			zap.Duration("ms", time.Since(start)))
	}
	h.respondTask(w, r, http.StatusCreated, "create_task", t, err)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("get_task", h.service.GetTask)(w, r)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var patch task.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	t, err := h.service.UpdateTask(r.Context(), id, actor(r), patch)
	h.respondTask(w, r, http.StatusOK, "update_task", t, err)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTask(r.Context(), id, actor(r)); err != nil {
		handleError(w, r, "delete_task", err)
		return
	}
	logger.Info("HTTP_OUT: task deleted", zap.String("task_id", id.String()))
	responseWithJSON(w, http.StatusNoContent)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("complete_task", h.service.CompleteTask)(w, r)
}

func (h *TaskHandler) IncompleteTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("incomplete_task", h.service.IncompleteTask)(w, r)
}

func (h *TaskHandler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("archive_task", h.service.ArchiveTask)(w, r)
}

func (h *TaskHandler) UnarchiveTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("unarchive_task", h.service.UnarchiveTask)(w, r)
}

func (h *TaskHandler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("restore_task", h.service.RestoreTask)(w, r)
}

func (h *TaskHandler) DuplicateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.DuplicateTask(r.Context(), id, actor(r))
	h.respondTask(w, r, http.StatusCreated, "duplicate_task", t, err)
}

func (h *TaskHandler) LogTime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.LogTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.service.LogTime(r.Context(), id, actor(r), req.Minutes)
	h.respondTask(w, r, http.StatusOK, "log_time", t, err)
}

func (h *TaskHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.service.BulkUpdate(r.Context(), actor(r), req.IDs, req.BulkUpdateInput)
	if err != nil {
		handleError(w, r, "bulk_update", err)
		return
	}
	logger.Info("HTTP_OUT: bulk update", zap.Int("modified", n))
	responseWithJSON(w, http.StatusOK, toPayload("modified", n))
}

func (h *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.service.BulkDelete(r.Context(), actor(r), req.IDs)
	if err != nil {
		handleError(w, r, "bulk_delete", err)
		return
	}
	logger.Info("HTTP_OUT: bulk delete", zap.Int("modified", n))
	responseWithJSON(w, http.StatusOK, toPayload("modified", n))
}
