package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"todoTracker/internal/access"
	"todoTracker/internal/activity"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/notify"
	"todoTracker/internal/repository"
	"todoTracker/internal/tree"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService is the lifecycle manager: every mutation loads the task,
// checks existence and then permission, applies the change in memory,
// records activity and persists the whole document in one write.
type TaskService struct {
	repo     TaskRepository
	users    UserDirectory
	notifier Notifier
	now      func() time.Time
	location *time.Location
	maxDepth int
}

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithLocation sets the zone that "today" is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMaxSubtaskDepth bounds how deep subtasks may nest. Zero disables the
// bound.
func WithMaxSubtaskDepth(depth int) Option {
	return func(s *TaskService) {
		s.maxDepth = depth
	}
}

func NewTaskService(repo TaskRepository, users UserDirectory, notifier Notifier, opts ...Option) *TaskService {
	s := &TaskService{
		repo:     repo,
		users:    users,
		notifier: notifier,
		now:      time.Now,
		location: time.Local,
		maxDepth: 32,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateTaskInput struct {
	Title         string        `json:"title" validate:"notblank,min=3,max=200"`
	Description   string        `json:"description" validate:"max=2000"`
	Category      string        `json:"category" validate:"max=50"`
	Tags          []string      `json:"tags" validate:"max=20,unique,dive,required,max=50"`
	Label         task.Label    `json:"label" validate:"omitempty,label"`
	Status        task.Status   `json:"status" validate:"omitempty,status,ne=completed"`
	Priority      task.Priority `json:"priority" validate:"omitempty,priority"`
	DueDate       *time.Time    `json:"due_date"`
	StartDate     *time.Time    `json:"start_date"`
	Reminder      *time.Time    `json:"reminder"`
	EstimatedTime int           `json:"estimated_time" validate:"min=0"`
	IsPublic      bool          `json:"is_public"`
}

const MaxLoggedMinutes = 24 * 60

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, in CreateTaskInput) (*task.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	t := task.New(ownerID, in.Title, now,
		task.WithDescription(in.Description),
		task.WithCategory(in.Category),
		task.WithTags(in.Tags),
		task.WithLabel(in.Label),
		task.WithStatus(in.Status),
		task.WithPriority(in.Priority),
		task.WithDueDate(in.DueDate),
		task.WithStartDate(in.StartDate),
		task.WithReminder(in.Reminder),
		task.WithEstimatedTime(in.EstimatedTime),
		task.WithPublic(in.IsPublic),
	)
	activity.Record(t, task.ActionCreated, ownerID, nil, now)

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.internal("create_task", t.ID, err)
	}

	logger.Info("Service: task created", zap.String("task_id", t.ID.String()), zap.String("actor_id", ownerID))
	return t, nil
}

// GetTask returns a task the actor may view. A soft-deleted task stays
// visible to its owner only.
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("task", id.String())
		}
		return nil, s.internal("get_task", id, err)
	}
	if t.IsDeleted && !access.IsOwner(t, actorID) {
		return nil, NewNotFound("task", id.String())
	}
	if err := authorize(t, actorID, access.View, "view task"); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, actorID string, patch task.TaskPatch) (*task.Task, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	if patch.Status != nil && *patch.Status == task.StatusCompleted {
		return nil, NewValidationError("status", "use the complete operation")
	}

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Edit, "update task"); err != nil {
		return nil, err
	}
	if patch.Status != nil && t.Completed && *patch.Status != t.Status {
		return nil, NewValidationError("status", "task is completed, mark it incomplete first")
	}

	changes := applyTaskPatch(t, patch)
	if changes.Empty() {
		return t, nil
	}
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "update_task"); err != nil {
		return nil, err
	}
	return t, nil
}

func applyTaskPatch(t *task.Task, p task.TaskPatch) activity.Changes {
	changes := activity.Changes{}
	if p.Title != nil {
		changes.Track("title", t.Title, *p.Title)
		t.Title = *p.Title
	}
	if p.Description != nil {
		changes.Track("description", t.Description, *p.Description)
		t.Description = *p.Description
	}
	if p.Category != nil {
		changes.Track("category", t.Category, *p.Category)
		t.Category = *p.Category
	}
	if p.Tags != nil {
		tags := append([]string{}, (*p.Tags)...)
		changes.Track("tags", t.Tags, tags)
		t.Tags = tags
	}
	if p.Label != nil {
		changes.Track("label", string(t.Label), string(*p.Label))
		t.Label = *p.Label
	}
	if p.Status != nil {
		changes.Track("status", string(t.Status), string(*p.Status))
		t.Status = *p.Status
	}
	if p.Priority != nil {
		changes.Track("priority", string(t.Priority), string(*p.Priority))
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		changes.Track("due_date", t.DueDate, p.DueDate)
		t.DueDate = copyTime(p.DueDate)
	}
	if p.StartDate != nil {
		changes.Track("start_date", t.StartDate, p.StartDate)
		t.StartDate = copyTime(p.StartDate)
	}
	if p.Reminder != nil {
		changes.Track("reminder", t.Reminder, p.Reminder)
		t.Reminder = copyTime(p.Reminder)
	}
	if p.EstimatedTime != nil {
		changes.Track("estimated_time", t.EstimatedTime, *p.EstimatedTime)
		t.EstimatedTime = *p.EstimatedTime
	}
	if p.IsPublic != nil {
		changes.Track("is_public", t.IsPublic, *p.IsPublic)
		t.IsPublic = *p.IsPublic
	}
	return changes
}

func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "complete task"); err != nil {
		return nil, err
	}
	if t.Completed {
		return nil, NewConflict("task is already completed", ToDetail("id", id.String()))
	}

	now := s.now()
	changes := activity.Changes{}
	changes.Track("status", string(t.Status), string(task.StatusCompleted))
	t.Status = task.StatusCompleted
	t.Completed = true
	t.CompletedAt = &now
	activity.Record(t, task.ActionCompleted, actorID, changes, now)

	if err := s.persist(ctx, t, "complete_task"); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) IncompleteTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "reopen task"); err != nil {
		return nil, err
	}
	if !t.Completed {
		return nil, NewConflict("task is not completed", ToDetail("id", id.String()))
	}

	changes := activity.Changes{}
	changes.Set("status", string(t.Status), string(task.StatusTodo))
	changes.Set("completed", true, false)
	t.Status = task.StatusTodo
	t.Completed = false
	t.CompletedAt = nil
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "incomplete_task"); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) LogTime(ctx context.Context, id uuid.UUID, actorID string, minutes int) (*task.Task, error) {
	if minutes <= 0 || minutes > MaxLoggedMinutes {
		return nil, NewValidationError("minutes", fmt.Sprintf("must be between 1 and %d", MaxLoggedMinutes))
	}

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "log time"); err != nil {
		return nil, err
	}

	changes := activity.Changes{}
	changes.Set("actual_time", t.ActualTime, t.ActualTime+minutes)
	changes.Set("logged_minutes", nil, minutes)
	t.ActualTime += minutes
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "log_time"); err != nil {
		return nil, err
	}
	return t, nil
}

// ArchiveTask and UnarchiveTask intentionally leave the activity log alone.
func (s *TaskService) ArchiveTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	return s.setArchived(ctx, id, actorID, true)
}

func (s *TaskService) UnarchiveTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	return s.setArchived(ctx, id, actorID, false)
}

func (s *TaskService) setArchived(ctx context.Context, id uuid.UUID, actorID string, archived bool) (*task.Task, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(t, actorID, access.Owner, "archive task"); err != nil {
		return nil, err
	}
	if t.IsArchived == archived {
		if archived {
			return nil, NewConflict("task is already archived", ToDetail("id", id.String()))
		}
		return nil, NewConflict("task is not archived", ToDetail("id", id.String()))
	}

	t.IsArchived = archived
	if err := s.persist(ctx, t, "archive_task"); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask soft-deletes: the document stays, every listing skips it.
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID, actorID string) error {
	t, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(t, actorID, access.Owner, "delete task"); err != nil {
		return err
	}

	now := s.now()
	t.IsDeleted = true
	t.DeletedAt = &now
	changes := activity.Changes{}
	changes.Set("is_deleted", false, true)
	activity.Record(t, task.ActionUpdated, actorID, changes, now)

	if err := s.persist(ctx, t, "delete_task"); err != nil {
		return err
	}
	logger.Info("Service: task soft deleted", zap.String("task_id", id.String()), zap.String("actor_id", actorID))
	return nil
}

// RestoreTask brings a soft-deleted task back into listings.
func (s *TaskService) RestoreTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound("task", id.String())
		}
		return nil, s.internal("restore_task", id, err)
	}
	if !access.IsOwner(t, actorID) {
		if t.IsDeleted {
			return nil, NewNotFound("task", id.String())
		}
		return nil, NewForbidden("restore task")
	}
	if !t.IsDeleted {
		return nil, NewConflict("task is not deleted", ToDetail("id", id.String()))
	}

	t.IsDeleted = false
	t.DeletedAt = nil
	changes := activity.Changes{}
	changes.Set("is_deleted", true, false)
	activity.Record(t, task.ActionUpdated, actorID, changes, s.now())

	if err := s.persist(ctx, t, "restore_task"); err != nil {
		return nil, err
	}
	return t, nil
}

// DuplicateTask copies content and the subtask tree into a new task owned
// by the same user. Sharing, comments, attachments and history stay behind.
func (s *TaskService) DuplicateTask(ctx context.Context, id uuid.UUID, actorID string) (*task.Task, error) {
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(src, actorID, access.Owner, "duplicate task"); err != nil {
		return nil, err
	}

	now := s.now()
	dup := task.New(src.OwnerID, copyTitle(src.Title), now,
		task.WithDescription(src.Description),
		task.WithPriority(src.Priority),
		task.WithCategory(src.Category),
		task.WithTags(src.Tags),
		task.WithEstimatedTime(src.EstimatedTime),
		task.WithSubtasks(tree.Clone(src.Subtasks, now)),
	)
	dup.ChecklistProgress = tree.Progress(dup.Subtasks)
	activity.Record(dup, task.ActionCreated, actorID, nil, now)

	if err := s.repo.Create(ctx, dup); err != nil {
		return nil, s.internal("duplicate_task", id, err)
	}
	return dup, nil
}

func copyTitle(title string) string {
	const maxTitle = 200
	limit := maxTitle - utf8.RuneCountInString(task.CopySuffix)
	if utf8.RuneCountInString(title) > limit {
		title = string([]rune(title)[:limit])
	}
	return title + task.CopySuffix
}

// load resolves a live task. Missing and soft-deleted tasks are both
// NOT_FOUND, and this always runs before any permission check.
func (s *TaskService) load(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: task not found", zap.String("task_id", id.String()))
			return nil, NewNotFound("task", id.String())
		}
		return nil, s.internal("load_task", id, err)
	}
	if t.IsDeleted {
		return nil, NewNotFound("task", id.String())
	}
	return t, nil
}

func (s *TaskService) persist(ctx context.Context, t *task.Task, op string) error {
	if err := s.repo.Save(ctx, t); err != nil {
		return s.internal(op, t.ID, err)
	}
	return nil
}

func (s *TaskService) internal(op string, id uuid.UUID, err error) error {
	logger.Error("Service: persistence failure", err,
		zap.String("operation", op),
		zap.String("task_id", id.String()))
	return NewInternal(op, err)
}

func (s *TaskService) ensureUser(ctx context.Context, userID string) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		logger.Error("Service: user lookup failed", err, zap.String("user_id", userID))
		return NewInternal("user_lookup", err)
	}
	if !ok {
		return NewNotFound("user", userID)
	}
	return nil
}

func (s *TaskService) publish(kind notify.Kind, t *task.Task, actorID string, recipients []string) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}
	s.notifier.Publish(notify.Event{
		Kind:       kind,
		TaskID:     t.ID,
		TaskTitle:  t.Title,
		ActorID:    actorID,
		Recipients: recipients,
		At:         s.now(),
	})
}

func authorize(t *task.Task, actorID string, level access.Level, action string) error {
	if access.CanAccess(t, actorID, level) {
		return nil
	}
	logger.Warn("Service: access denied",
		zap.String("task_id", t.ID.String()),
		zap.String("actor_id", actorID),
		zap.String("required", level.String()))
	return NewForbidden(action)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
