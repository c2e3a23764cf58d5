package handlers

import (
	"net/http"

	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in service.CommentInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.service.AddComment(r.Context(), id, actor(r), in)
	h.respondTask(w, r, http.StatusCreated, "add_comment", t, err)
}

func (h *TaskHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.service.UpdateComment(r.Context(), id, commentID, actor(r), req.Text)
	h.respondTask(w, r, http.StatusOK, "update_comment", t, err)
}

func (h *TaskHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	t, err := h.service.DeleteComment(r.Context(), id, commentID, actor(r))
	h.respondTask(w, r, http.StatusOK, "delete_comment", t, err)
}

func (h *TaskHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in service.AttachmentInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.service.AddAttachment(r.Context(), id, actor(r), in)
	h.respondTask(w, r, http.StatusCreated, "add_attachment", t, err)
}

func (h *TaskHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	attachmentID, ok := pathUUID(w, r, "attachmentID")
	if !ok {
		return
	}
	t, err := h.service.DeleteAttachment(r.Context(), id, attachmentID, actor(r))
	h.respondTask(w, r, http.StatusOK, "delete_attachment", t, err)
}

func (h *TaskHandler) ShareTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in service.ShareInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.service.ShareTask(r.Context(), id, actor(r), in)
	h.respondTask(w, r, http.StatusOK, "share_task", t, err)
}

func (h *TaskHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.RevokeShare(r.Context(), id, actor(r), chi.URLParam(r, "userID"))
	h.respondTask(w, r, http.StatusOK, "revoke_share", t, err)
}

func (h *TaskHandler) AddWatcher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.service.AddWatcher(r.Context(), id, actor(r), req.UserID)
	h.respondTask(w, r, http.StatusOK, "add_watcher", t, err)
}

func (h *TaskHandler) RemoveWatcher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.RemoveWatcher(r.Context(), id, actor(r), chi.URLParam(r, "userID"))
	h.respondTask(w, r, http.StatusOK, "remove_watcher", t, err)
}

func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.service.AssignTask(r.Context(), id, actor(r), req.UserID)
	h.respondTask(w, r, http.StatusOK, "assign_task", t, err)
}

func (h *TaskHandler) UnassignTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction("unassign_task", h.service.UnassignTask)(w, r)
}
