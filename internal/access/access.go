// Package access decides what an actor may do with a task.
package access

import "todoTracker/internal/models/task"

type Level int

const (
	View Level = iota + 1
	Edit
	Admin
	Owner
)

func (l Level) String() string {
	switch l {
	case View:
		return "view"
	case Edit:
		return "edit"
	case Admin:
		return "admin"
	case Owner:
		return "owner"
	}
	return "unknown"
}

// LevelOf maps a share permission onto the view < edit < admin order.
func LevelOf(p task.Permission) Level {
	switch p {
	case task.PermissionView:
		return View
	case task.PermissionEdit:
		return Edit
	case task.PermissionAdmin:
		return Admin
	}
	return 0
}

func IsOwner(t *task.Task, actorID string) bool {
	return actorID != "" && t.OwnerID == actorID
}

// CanAccess is the share-aware check. The owner passes every level; anyone
// else needs a share entry granting at least the required level. Owner
// level is never reachable through a share.
func CanAccess(t *task.Task, actorID string, required Level) bool {
	if IsOwner(t, actorID) {
		return true
	}
	if required >= Owner || actorID == "" {
		return false
	}
	share, ok := t.ShareFor(actorID)
	if !ok {
		return false
	}
	return LevelOf(share.Permission) >= required
}

// IsAuthor is the authorship rule for comments and attachments, independent
// of sharing.
func IsAuthor(authorID, actorID string) bool {
	return actorID != "" && authorID == actorID
}
