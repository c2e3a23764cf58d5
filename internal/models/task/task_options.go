package task

import (
	"time"

	"github.com/google/uuid"
)

type TaskOption func(*Task)

// New builds a task with the defaults every fresh task starts with.
// Options returning nil are skipped.
func New(ownerID, title string, now time.Time, options ...TaskOption) *Task {
	t := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Category:    DefaultCategory,
		Tags:        []string{},
		Status:      StatusTodo,
		Priority:    PriorityMedium,
		Watchers:    []string{},
		SharedWith:  []Share{},
		Subtasks:    []Subtask{},
		Comments:    []Comment{},
		Attachments: []Attachment{},
		ActivityLog: []Activity{},
		CreatedAt:   now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(t *Task) {
		t.Description = description
	}
}

func WithCategory(category string) TaskOption {
	if category == "" {
		return nil
	}
	return func(t *Task) {
		t.Category = category
	}
}

func WithTags(tags []string) TaskOption {
	if len(tags) == 0 {
		return nil
	}
	return func(t *Task) {
		t.Tags = append([]string{}, tags...)
	}
}

func WithLabel(label Label) TaskOption {
	return func(t *Task) {
		t.Label = label
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(t *Task) {
		t.Priority = priority
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(t *Task) {
		t.Status = status
	}
}

func WithDueDate(due *time.Time) TaskOption {
	if due == nil || due.IsZero() {
		return nil
	}
	return func(t *Task) {
		d := *due
		t.DueDate = &d
	}
}

func WithStartDate(start *time.Time) TaskOption {
	if start == nil || start.IsZero() {
		return nil
	}
	return func(t *Task) {
		s := *start
		t.StartDate = &s
	}
}

func WithReminder(reminder *time.Time) TaskOption {
	if reminder == nil || reminder.IsZero() {
		return nil
	}
	return func(t *Task) {
		r := *reminder
		t.Reminder = &r
	}
}

func WithEstimatedTime(minutes int) TaskOption {
	return func(t *Task) {
		t.EstimatedTime = minutes
	}
}

func WithPublic(public bool) TaskOption {
	return func(t *Task) {
		t.IsPublic = public
	}
}

func WithSubtasks(subtasks []Subtask) TaskOption {
	return func(t *Task) {
		t.Subtasks = subtasks
	}
}
