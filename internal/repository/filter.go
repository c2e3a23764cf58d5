package repository

import (
	"slices"
	"sort"
	"strings"
	"time"

	"todoTracker/internal/models/task"

	"github.com/google/uuid"
)

// Filter is the predicate behind every read. Zero-valued fields do not
// constrain. Soft-deleted tasks are excluded unless IncludeDeleted is set.
type Filter struct {
	OwnerID        string
	IDs            []uuid.UUID
	Status         task.Status
	Priority       task.Priority
	Tag            string
	Category       string
	Search         string
	Archived       *bool
	Completed      *bool
	DueBefore      *time.Time
	DueFrom        *time.Time
	DueTo          *time.Time
	ReminderBefore *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

func (f Filter) Match(t *task.Task) bool {
	if t.IsDeleted && !f.IncludeDeleted {
		return false
	}
	if f.OwnerID != "" && t.OwnerID != f.OwnerID {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, t.ID) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !slices.Contains(t.Tags, f.Tag) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Archived != nil && t.IsArchived != *f.Archived {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueTo)) {
		return false
	}
	if f.ReminderBefore != nil && (t.Reminder == nil || t.Reminder.After(*f.ReminderBefore)) {
		return false
	}
	if f.Search != "" && !matchesSearch(t, f.Search) {
		return false
	}
	return true
}

// case-insensitive substring over title, description and tags
func matchesSearch(t *task.Task, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortTitle     SortField = "title"
)

type Sort struct {
	Field SortField
	Desc  bool
}

var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

func (s Sort) Valid() bool {
	switch s.Field {
	case SortCreatedAt, SortDueDate, SortPriority, SortTitle:
		return true
	}
	return false
}

func (s Sort) less(a, b *task.Task) bool {
	switch s.Field {
	case SortDueDate:
		// tasks without a due date go last either way
		if a.DueDate == nil || b.DueDate == nil {
			return a.DueDate != nil && b.DueDate == nil
		}
		if s.Desc {
			return a.DueDate.After(*b.DueDate)
		}
		return a.DueDate.Before(*b.DueDate)
	case SortPriority:
		if s.Desc {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.Priority.Rank() < b.Priority.Rank()
	case SortTitle:
		if s.Desc {
			return strings.ToLower(a.Title) > strings.ToLower(b.Title)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	}
	if s.Desc {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Select applies filter, sort and pagination in process. Backends without a
// query language of their own (memory, sqlite documents, firestore) use it.
func Select(tasks []*task.Task, f Filter, s Sort) []*task.Task {
	res := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			res = append(res, t)
		}
	}
	if !s.Valid() {
		s = DefaultSort
	}
	sort.SliceStable(res, func(i, j int) bool {
		return s.less(res[i], res[j])
	})

	if f.Offset > 0 {
		if f.Offset >= len(res) {
			return []*task.Task{}
		}
		res = res[f.Offset:]
	}
	if f.Limit > 0 && len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res
}

const (
	FieldCategory = "category"
	FieldTags     = "tags"
)

// Distinct collects the unique values of a field over matching tasks,
// sorted.
func Distinct(tasks []*task.Task, field string, f Filter) ([]string, error) {
	if field != FieldCategory && field != FieldTags {
		return nil, ErrUnsupportedField
	}
	seen := map[string]struct{}{}
	for _, t := range tasks {
		if !f.Match(t) {
			continue
		}
		if field == FieldCategory {
			seen[t.Category] = struct{}{}
			continue
		}
		for _, tag := range t.Tags {
			seen[tag] = struct{}{}
		}
	}

	res := make([]string, 0, len(seen))
	for v := range seen {
		if v != "" {
			res = append(res, v)
		}
	}
	sort.Strings(res)
	return res, nil
}
