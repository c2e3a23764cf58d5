package handlers

import (
	"net/http"

	"todoTracker/internal/models/task"
	"todoTracker/internal/service"
)

func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in service.AddSubtaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.service.AddSubtask(r.Context(), id, actor(r), in)
	h.respondTask(w, r, http.StatusCreated, "add_subtask", t, err)
}

func (h *TaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathUUID(w, r, "subtaskID")
	if !ok {
		return
	}
	var patch task.SubtaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	t, err := h.service.UpdateSubtask(r.Context(), id, subtaskID, actor(r), patch)
	h.respondTask(w, r, http.StatusOK, "update_subtask", t, err)
}

func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathUUID(w, r, "subtaskID")
	if !ok {
		return
	}
	t, err := h.service.ToggleSubtask(r.Context(), id, subtaskID, actor(r))
	h.respondTask(w, r, http.StatusOK, "toggle_subtask", t, err)
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := pathUUID(w, r, "subtaskID")
	if !ok {
		return
	}
	t, err := h.service.DeleteSubtask(r.Context(), id, subtaskID, actor(r))
	h.respondTask(w, r, http.StatusOK, "delete_subtask", t, err)
}
