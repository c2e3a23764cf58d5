package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todoTracker/internal/access"
	"todoTracker/internal/activity"
	"todoTracker/internal/models/task"
	"todoTracker/internal/tree"

	"github.com/google/uuid"
)

type AddSubtaskInput struct {
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Title       string        `json:"title" validate:"notblank,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Priority    task.Priority `json:"priority" validate:"omitempty,priority"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// AddSubtask inserts a node at the root of the tree, or under ParentID.
func (s *TaskService) AddSubtask(ctx context.Context, taskID uuid.UUID, actorID string, in AddSubtaskInput) (*task.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Edit, "add subtask"); err != nil {
		return nil, err
	}

	parentID := uuid.Nil
	if in.ParentID != nil && *in.ParentID != uuid.Nil {
		parentID = *in.ParentID
		depth, ok := tree.Depth(t.Subtasks, parentID)
		if !ok {
			return nil, NewNotFound("subtask", parentID.String())
		}
		if s.maxDepth > 0 && depth+1 > s.maxDepth {
			return nil, NewValidationError("parent_id", fmt.Sprintf("subtasks nest at most %d levels", s.maxDepth))
		}
	}

	now := s.now()
	node := tree.NewNode(in.Title, in.Description, in.Priority, in.DueDate, now)
	if !tree.Insert(&t.Subtasks, parentID, node) {
		return nil, NewNotFound("subtask", parentID.String())
	}
	t.ChecklistProgress = tree.Progress(t.Subtasks)

	changes := activity.Changes{}
	changes.Set("subtask_added", nil, node.ID.String())
	activity.Record(t, task.ActionUpdated, actorID, changes, now)

	if err := s.persist(ctx, t, "add_subtask"); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateSubtask edits one node. A change to status or completion only is
// logged as status-changed, a change to priority only as priority-changed.
func (s *TaskService) UpdateSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string, patch task.SubtaskPatch) (*task.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && patch.Completed != nil &&
		(*patch.Status == task.StatusCompleted) != *patch.Completed {
		return nil, NewValidationError("completed", "contradicts status")
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Edit, "update subtask"); err != nil {
		return nil, err
	}
	return s.applySubtaskPatch(ctx, t, subtaskID, actorID, patch)
}

// ToggleSubtask flips the completion of one node.
func (s *TaskService) ToggleSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Edit, "update subtask"); err != nil {
		return nil, err
	}
	n, ok := tree.Find(t.Subtasks, subtaskID)
	if !ok {
		return nil, NewNotFound("subtask", subtaskID.String())
	}
	done := !n.Completed
	return s.applySubtaskPatch(ctx, t, subtaskID, actorID, task.SubtaskPatch{Completed: &done})
}

func (s *TaskService) applySubtaskPatch(ctx context.Context, t *task.Task, subtaskID uuid.UUID, actorID string, patch task.SubtaskPatch) (*task.Task, error) {
	n, ok := tree.Find(t.Subtasks, subtaskID)
	if !ok {
		return nil, NewNotFound("subtask", subtaskID.String())
	}
	before := *n

	now := s.now()
	tree.Update(t.Subtasks, subtaskID, patch, now)
	after, _ := tree.Find(t.Subtasks, subtaskID)

	changes := activity.Changes{}
	changes.Track("title", before.Title, after.Title)
	changes.Track("description", before.Description, after.Description)
	changes.Track("status", string(before.Status), string(after.Status))
	changes.Track("priority", string(before.Priority), string(after.Priority))
	changes.Track("due_date", before.DueDate, after.DueDate)
	changes.Track("completed", before.Completed, after.Completed)
	if changes.Empty() {
		return t, nil
	}
	action := subtaskAction(changes)
	changes.Set("subtask", nil, subtaskID.String())

	t.ChecklistProgress = tree.Progress(t.Subtasks)
	activity.Record(t, action, actorID, changes, now)

	if err := s.persist(ctx, t, "update_subtask"); err != nil {
		return nil, err
	}
	return t, nil
}

func subtaskAction(changes activity.Changes) task.Action {
	statusOnly, priorityOnly := true, true
	for field := range changes {
		switch field {
		case "status", "completed":
			priorityOnly = false
		case "priority":
			statusOnly = false
		default:
			return task.ActionUpdated
		}
	}
	switch {
	case statusOnly:
		return task.ActionStatusChanged
	case priorityOnly:
		return task.ActionPriorityChanged
	}
	return task.ActionUpdated
}

// DeleteSubtask removes a node and its whole subtree. Owner only.
func (s *TaskService) DeleteSubtask(ctx context.Context, taskID, subtaskID uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "delete subtask"); err != nil {
		return nil, err
	}
	if !tree.Remove(&t.Subtasks, subtaskID) {
		return nil, NewNotFound("subtask", subtaskID.String())
	}
	t.ChecklistProgress = tree.Progress(t.Subtasks)

	changes := activity.Changes{}
	changes.Set("subtask_removed", subtaskID.String(), nil)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "delete_subtask"); err != nil {
		return nil, err
	}
	return t, nil
}
