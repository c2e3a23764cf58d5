package repository

import (
	"time"

	"todoTracker/internal/models/task"
)

// BulkPatch is the field set UpdateMany may write across many tasks at once.
type BulkPatch struct {
	Status     *task.Status
	Priority   *task.Priority
	Category   *string
	IsArchived *bool
	Delete     bool
	At         time.Time
}

// Apply writes the patch onto one task. Completion is never changed here:
// a completed task keeps its status, and completed is not a status a bulk
// patch can set.
func (p BulkPatch) Apply(t *task.Task) {
	at := p.At
	if p.Status != nil && !t.Completed && *p.Status != task.StatusCompleted {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.IsArchived != nil {
		t.IsArchived = *p.IsArchived
	}
	if p.Delete {
		t.IsDeleted = true
		t.DeletedAt = &at
	}
	t.UpdatedAt = &at
	t.Version++
}
