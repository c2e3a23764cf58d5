package handlers

import (
	"net/http"

	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
)

func listQuery(r *http.Request) (service.ListQuery, error) {
	values := r.URL.Query()
	q := service.ListQuery{
		Status:   task.Status(values.Get("status")),
		Priority: task.Priority(values.Get("priority")),
		Tag:      values.Get("tag"),
		Category: values.Get("category"),
		Search:   values.Get("search"),
		Sort:     values.Get("sort"),
		Order:    values.Get("order"),
	}

	var err error
	if q.Archived, err = queryBool(r, "archived"); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(r, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r)
	if err != nil {
		handleError(w, r, "list_tasks", err)
		return
	}
	tasks, err := h.service.ListTasks(r.Context(), actor(r), q)
	h.respondTasks(w, r, "list_tasks", tasks, err)
}

func (h *TaskHandler) TasksByStatus(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.TasksByStatus(r.Context(), actor(r), task.Status(chi.URLParam(r, "status")))
	h.respondTasks(w, r, "tasks_by_status", tasks, err)
}

func (h *TaskHandler) TasksByPriority(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.TasksByPriority(r.Context(), actor(r), task.Priority(chi.URLParam(r, "priority")))
	h.respondTasks(w, r, "tasks_by_priority", tasks, err)
}

func (h *TaskHandler) TasksByTag(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.TasksByTag(r.Context(), actor(r), chi.URLParam(r, "tag"))
	h.respondTasks(w, r, "tasks_by_tag", tasks, err)
}

func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.SearchTasks(r.Context(), actor(r), r.URL.Query().Get("q"))
	h.respondTasks(w, r, "search_tasks", tasks, err)
}

func (h *TaskHandler) OverdueTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.OverdueTasks(r.Context(), actor(r))
	h.respondTasks(w, r, "overdue_tasks", tasks, err)
}

func (h *TaskHandler) DueTodayTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.DueTodayTasks(r.Context(), actor(r))
	h.respondTasks(w, r, "due_today_tasks", tasks, err)
}

func (h *TaskHandler) ArchivedTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ArchivedTasks(r.Context(), actor(r))
	h.respondTasks(w, r, "archived_tasks", tasks, err)
}

func (h *TaskHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context(), actor(r))
	if err != nil {
		handleError(w, r, "categories", err)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("categories", categories))
}

func (h *TaskHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context(), actor(r))
	if err != nil {
		handleError(w, r, "tags", err)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("tags", tags))
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), actor(r))
	if err != nil {
		handleError(w, r, "stats", err)
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("stats", stats))
}
