package service

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListQuery narrows a listing of the owner's tasks. Archived tasks are left
// out unless Archived says otherwise.
type ListQuery struct {
	Status   task.Status   `json:"status" validate:"omitempty,status"`
	Priority task.Priority `json:"priority" validate:"omitempty,priority"`
	Tag      string        `json:"tag" validate:"max=50"`
	Category string        `json:"category" validate:"max=50"`
	Search   string        `json:"search" validate:"max=200"`
	Archived *bool         `json:"archived"`
	Page     int           `json:"page" validate:"min=0"`
	Limit    int           `json:"limit" validate:"min=0,max=100"`
	Sort     string        `json:"sort" validate:"omitempty,oneof=createdAt dueDate priority title"`
	Order    string        `json:"order" validate:"omitempty,oneof=asc desc"`
}

type Stats struct {
	Total            int                 `json:"total"`
	ByStatus         map[task.Status]int `json:"by_status"`
	Completed        int                 `json:"completed"`
	Overdue          int                 `json:"overdue"`
	UrgentIncomplete int                 `json:"urgent_incomplete"`
	CompletionRate   int                 `json:"completion_rate"`
}

func (s *TaskService) ListTasks(ctx context.Context, ownerID string, q ListQuery) ([]*task.Task, error) {
	q.Search = strings.TrimSpace(q.Search)
	if err := validateInput(q); err != nil {
		return nil, err
	}

	archived := false
	if q.Archived != nil {
		archived = *q.Archived
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultPageSize
	}
	page := max(q.Page, 1)

	sort := repository.DefaultSort
	if q.Sort != "" {
		sort = repository.Sort{Field: repository.SortField(q.Sort), Desc: q.Order != "asc"}
	} else if q.Order == "asc" {
		sort.Desc = false
	}

	return s.find(ctx, repository.Filter{
		OwnerID:  ownerID,
		Status:   q.Status,
		Priority: q.Priority,
		Tag:      q.Tag,
		Category: q.Category,
		Search:   q.Search,
		Archived: &archived,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}, sort)
}

func (s *TaskService) TasksByStatus(ctx context.Context, ownerID string, status task.Status) ([]*task.Task, error) {
	if !slices.Contains(task.Statuses, status) {
		return nil, NewValidationError("status", "status")
	}
	return s.find(ctx, repository.Filter{OwnerID: ownerID, Status: status}, repository.DefaultSort)
}

func (s *TaskService) TasksByPriority(ctx context.Context, ownerID string, priority task.Priority) ([]*task.Task, error) {
	if priority.Rank() == 0 {
		return nil, NewValidationError("priority", "priority")
	}
	return s.find(ctx, repository.Filter{OwnerID: ownerID, Priority: priority}, repository.DefaultSort)
}

// TasksByTag matches the tag exactly, unlike search.
func (s *TaskService) TasksByTag(ctx context.Context, ownerID, tag string) ([]*task.Task, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, NewValidationError("tag", "required")
	}
	return s.find(ctx, repository.Filter{OwnerID: ownerID, Tag: tag}, repository.DefaultSort)
}

func (s *TaskService) SearchTasks(ctx context.Context, ownerID, query string) ([]*task.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("q", "required")
	}
	return s.find(ctx, repository.Filter{OwnerID: ownerID, Search: query}, repository.DefaultSort)
}

func (s *TaskService) OverdueTasks(ctx context.Context, ownerID string) ([]*task.Task, error) {
	now := s.now()
	return s.find(ctx, repository.Filter{
		OwnerID:   ownerID,
		DueBefore: &now,
		Completed: boolPtr(false),
	}, repository.Sort{Field: repository.SortDueDate})
}

// DueTodayTasks uses the day bounds of the configured location.
func (s *TaskService) DueTodayTasks(ctx context.Context, ownerID string) ([]*task.Task, error) {
	from, to := dayBounds(s.now(), s.location)
	return s.find(ctx, repository.Filter{
		OwnerID: ownerID,
		DueFrom: &from,
		DueTo:   &to,
	}, repository.Sort{Field: repository.SortDueDate})
}

func (s *TaskService) ArchivedTasks(ctx context.Context, ownerID string) ([]*task.Task, error) {
	return s.find(ctx, repository.Filter{OwnerID: ownerID, Archived: boolPtr(true)}, repository.DefaultSort)
}

func (s *TaskService) Categories(ctx context.Context, ownerID string) ([]string, error) {
	return s.distinct(ctx, ownerID, repository.FieldCategory)
}

func (s *TaskService) Tags(ctx context.Context, ownerID string) ([]string, error) {
	return s.distinct(ctx, ownerID, repository.FieldTags)
}

// Stats aggregates over every live task of the owner, archived included.
func (s *TaskService) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	base := repository.Filter{OwnerID: ownerID}
	stats := &Stats{ByStatus: make(map[task.Status]int, len(task.Statuses))}

	var err error
	if stats.Total, err = s.count(ctx, base); err != nil {
		return nil, err
	}
	for _, status := range task.Statuses {
		f := base
		f.Status = status
		if stats.ByStatus[status], err = s.count(ctx, f); err != nil {
			return nil, err
		}
	}

	done := base
	done.Completed = boolPtr(true)
	if stats.Completed, err = s.count(ctx, done); err != nil {
		return nil, err
	}

	now := s.now()
	overdue := base
	overdue.DueBefore = &now
	overdue.Completed = boolPtr(false)
	if stats.Overdue, err = s.count(ctx, overdue); err != nil {
		return nil, err
	}

	urgent := base
	urgent.Priority = task.PriorityUrgent
	urgent.Completed = boolPtr(false)
	if stats.UrgentIncomplete, err = s.count(ctx, urgent); err != nil {
		return nil, err
	}

	stats.CompletionRate = completionRate(stats.Completed, stats.Total)
	return stats, nil
}

func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (s *TaskService) find(ctx context.Context, f repository.Filter, sort repository.Sort) ([]*task.Task, error) {
	tasks, err := s.repo.Find(ctx, f, sort)
	if err != nil {
		logger.Error("Service: query failed", err, zap.String("owner_id", f.OwnerID))
		return nil, NewInternal("find_tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) count(ctx context.Context, f repository.Filter) (int, error) {
	n, err := s.repo.Count(ctx, f)
	if err != nil {
		logger.Error("Service: count failed", err, zap.String("owner_id", f.OwnerID))
		return 0, NewInternal("count_tasks", err)
	}
	return n, nil
}

func (s *TaskService) distinct(ctx context.Context, ownerID, field string) ([]string, error) {
	values, err := s.repo.Distinct(ctx, field, repository.Filter{OwnerID: ownerID})
	if err != nil {
		logger.Error("Service: distinct failed", err, zap.String("field", field))
		return nil, NewInternal("distinct_"+field, err)
	}
	return values, nil
}

func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func boolPtr(b bool) *bool {
	return &b
}
