package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the task API on r. auth resolves the acting user and wraps
// every route except the health check.
func (h *TaskHandler) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/health", h.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", h.ListTasks)   // GET /tasks
		r.Post("/", h.CreateTask) // POST /tasks

		r.Get("/search", h.SearchTasks)
		r.Get("/overdue", h.OverdueTasks)
		r.Get("/due-today", h.DueTodayTasks)
		r.Get("/archived", h.ArchivedTasks)
		r.Get("/categories", h.Categories)
		r.Get("/tags", h.Tags)
		r.Get("/stats", h.Stats)
		r.Get("/status/{status}", h.TasksByStatus)
		r.Get("/priority/{priority}", h.TasksByPriority)
		r.Get("/tag/{tag}", h.TasksByTag)

		r.Post("/bulk/update", h.BulkUpdate)
		r.Post("/bulk/delete", h.BulkDelete)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Patch("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)

			r.Post("/complete", h.CompleteTask)
			r.Post("/incomplete", h.IncompleteTask)
			r.Post("/archive", h.ArchiveTask)
			r.Post("/unarchive", h.UnarchiveTask)
			r.Post("/restore", h.RestoreTask)
			r.Post("/duplicate", h.DuplicateTask)
			r.Post("/time", h.LogTime)

			r.Post("/subtasks", h.AddSubtask)
			r.Patch("/subtasks/{subtaskID}", h.UpdateSubtask)
			r.Post("/subtasks/{subtaskID}/toggle", h.ToggleSubtask)
			r.Delete("/subtasks/{subtaskID}", h.DeleteSubtask)

			r.Post("/comments", h.AddComment)
			r.Patch("/comments/{commentID}", h.UpdateComment)
			r.Delete("/comments/{commentID}", h.DeleteComment)

			r.Post("/attachments", h.AddAttachment)
			r.Delete("/attachments/{attachmentID}", h.DeleteAttachment)

			r.Post("/share", h.ShareTask)
			r.Delete("/share/{userID}", h.RevokeShare)
			r.Post("/watchers", h.AddWatcher)
			r.Delete("/watchers/{userID}", h.RemoveWatcher)
			r.Post("/assign", h.AssignTask)
			r.Delete("/assign", h.UnassignTask)
		})
	})
}
