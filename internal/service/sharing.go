package service

import (
	"context"
	"slices"
	"strings"

	"todoTracker/internal/access"
	"todoTracker/internal/activity"
	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"

	"github.com/google/uuid"
)

type ShareInput struct {
	UserID     string          `json:"user_id" validate:"notblank"`
	Permission task.Permission `json:"permission" validate:"omitempty,permission"`
}

// ShareTask grants another user access. Only the owner shares, never with
// themselves, and each user holds at most one share entry.
func (s *TaskService) ShareTask(ctx context.Context, taskID uuid.UUID, actorID string, in ShareInput) (*task.Task, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Permission == "" {
		in.Permission = task.PermissionView
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "share task"); err != nil {
		return nil, err
	}
	if in.UserID == t.OwnerID {
		return nil, NewValidationError("user_id", "owner already has full access")
	}
	if _, ok := t.ShareFor(in.UserID); ok {
		return nil, NewConflict("task is already shared with this user", ToDetail("user_id", in.UserID))
	}
	if err := s.ensureUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	t.SharedWith = append(t.SharedWith, task.Share{
		UserID:     in.UserID,
		Permission: in.Permission,
		SharedAt:   now,
	})

	changes := activity.Changes{}
	changes.Set("shared_with", nil, map[string]any{"user_id": in.UserID, "permission": string(in.Permission)})
	activity.Record(t, task.ActionUpdated, actorID, changes, now)

	if err := s.persist(ctx, t, "share_task"); err != nil {
		return nil, err
	}
	s.publish(notify.KindShared, t, actorID, []string{in.UserID})
	return t, nil
}

func (s *TaskService) RevokeShare(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "revoke share"); err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(t.SharedWith, func(sh task.Share) bool { return sh.UserID == userID })
	if idx < 0 {
		return nil, NewNotFound("share", userID)
	}
	revoked := t.SharedWith[idx]
	t.SharedWith = slices.Delete(t.SharedWith, idx, idx+1)

	changes := activity.Changes{}
	changes.Set("shared_with", map[string]any{"user_id": revoked.UserID, "permission": string(revoked.Permission)}, nil)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "revoke_share"); err != nil {
		return nil, err
	}
	return t, nil
}

// AddWatcher is open to anyone who can view the task.
func (s *TaskService) AddWatcher(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, NewValidationError("user_id", "notblank")
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "watch task"); err != nil {
		return nil, err
	}
	if t.HasWatcher(userID) {
		return nil, NewConflict("user already watches this task", ToDetail("user_id", userID))
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	changes := activity.Changes{}
	changes.Set("watchers", slices.Clone(t.Watchers), append(slices.Clone(t.Watchers), userID))
	t.Watchers = append(t.Watchers, userID)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "add_watcher"); err != nil {
		return nil, err
	}
	if userID != actorID {
		s.publish(notify.KindWatching, t, actorID, []string{userID})
	}
	return t, nil
}

func (s *TaskService) RemoveWatcher(ctx context.Context, taskID uuid.UUID, actorID, userID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.View, "unwatch task"); err != nil {
		return nil, err
	}

	idx := slices.Index(t.Watchers, userID)
	if idx < 0 {
		return nil, NewNotFound("watcher", userID)
	}
	changes := activity.Changes{}
	old := slices.Clone(t.Watchers)
	t.Watchers = slices.Delete(t.Watchers, idx, idx+1)
	changes.Set("watchers", old, slices.Clone(t.Watchers))
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "remove_watcher"); err != nil {
		return nil, err
	}
	return t, nil
}

// AssignTask hands the task to a known user and tells them about it.
func (s *TaskService) AssignTask(ctx context.Context, taskID uuid.UUID, actorID, assigneeID string) (*task.Task, error) {
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, NewValidationError("assignee_id", "notblank")
	}

	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "assign task"); err != nil {
		return nil, err
	}
	if t.AssignedTo == assigneeID {
		return t, nil
	}
	if err := s.ensureUser(ctx, assigneeID); err != nil {
		return nil, err
	}

	var from any
	if t.AssignedTo != "" {
		from = t.AssignedTo
	}
	changes := activity.Changes{}
	changes.Set("assigned_to", from, assigneeID)
	t.AssignedTo = assigneeID
	activity.Record(t, task.ActionAssigned, actorID, changes, s.now())

	if err := s.persist(ctx, t, "assign_task"); err != nil {
		return nil, err
	}
	if assigneeID != actorID {
		s.publish(notify.KindAssigned, t, actorID, []string{assigneeID})
	}
	return t, nil
}

func (s *TaskService) UnassignTask(ctx context.Context, taskID uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "unassign task"); err != nil {
		return nil, err
	}
	if t.AssignedTo == "" {
		return t, nil
	}

	changes := activity.Changes{}
	changes.Set("assigned_to", t.AssignedTo, nil)
	t.AssignedTo = ""
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "unassign_task"); err != nil {
		return nil, err
	}
	return t, nil
}
