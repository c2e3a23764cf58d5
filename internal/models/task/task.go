package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID `json:"id" firestore:"id"`
	OwnerID     string    `json:"owner_id" firestore:"ownerId"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	Category    string    `json:"category" firestore:"category"`
	Tags        []string  `json:"tags" firestore:"tags"`
	Label       Label     `json:"label,omitempty" firestore:"label"`

	Status      Status     `json:"status" firestore:"status"`
	Priority    Priority   `json:"priority" firestore:"priority"`
	Completed   bool       `json:"completed" firestore:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" firestore:"completedAt"`

	DueDate       *time.Time `json:"due_date,omitempty" firestore:"dueDate"`
	StartDate     *time.Time `json:"start_date,omitempty" firestore:"startDate"`
	Reminder      *time.Time `json:"reminder,omitempty" firestore:"reminder"`
	EstimatedTime int        `json:"estimated_time" firestore:"estimatedTime"`
	ActualTime    int        `json:"actual_time" firestore:"actualTime"`

	AssignedTo   string      `json:"assigned_to,omitempty" firestore:"assignedTo"`
	Watchers     []string    `json:"watchers" firestore:"watchers"`
	SharedWith   []Share     `json:"shared_with" firestore:"sharedWith"`
	ParentID     *uuid.UUID  `json:"parent_id,omitempty" firestore:"parentId"`
	RelatedTodos []uuid.UUID `json:"related_todos,omitempty" firestore:"relatedTodos"`

	Subtasks          []Subtask         `json:"subtasks" firestore:"subtasks"`
	ChecklistProgress ChecklistProgress `json:"checklist_progress" firestore:"checklistProgress"`
	Comments          []Comment         `json:"comments" firestore:"comments"`
	Attachments       []Attachment      `json:"attachments" firestore:"attachments"`
	ActivityLog       []Activity        `json:"activity_log" firestore:"activityLog"`

	IsArchived bool       `json:"is_archived" firestore:"isArchived"`
	IsDeleted  bool       `json:"is_deleted" firestore:"isDeleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" firestore:"deletedAt"`
	IsPublic   bool       `json:"is_public" firestore:"isPublic"`

	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" firestore:"updatedAt"`
	Version   int        `json:"version" firestore:"version"`
}

// Subtask is a node of the task's checklist tree. Its id is unique across
// the whole tree of the owning task.
type Subtask struct {
	ID            uuid.UUID    `json:"id" firestore:"id"`
	Title         string       `json:"title" firestore:"title"`
	Description   string       `json:"description" firestore:"description"`
	Status        Status       `json:"status" firestore:"status"`
	Priority      Priority     `json:"priority" firestore:"priority"`
	Completed     bool         `json:"completed" firestore:"completed"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty" firestore:"completedAt"`
	DueDate       *time.Time   `json:"due_date,omitempty" firestore:"dueDate"`
	EstimatedTime int          `json:"estimated_time" firestore:"estimatedTime"`
	ActualTime    int          `json:"actual_time" firestore:"actualTime"`
	Subtasks      []Subtask    `json:"subtasks" firestore:"subtasks"`
	Comments      []Comment    `json:"comments,omitempty" firestore:"comments"`
	Attachments   []Attachment `json:"attachments,omitempty" firestore:"attachments"`
	CreatedAt     time.Time    `json:"created_at" firestore:"createdAt"`
}

type Comment struct {
	ID        uuid.UUID  `json:"id" firestore:"id"`
	AuthorID  string     `json:"author_id" firestore:"authorId"`
	Text      string     `json:"text" firestore:"text"`
	Mentions  []string   `json:"mentions,omitempty" firestore:"mentions"`
	CreatedAt time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" firestore:"updatedAt"`
}

type Attachment struct {
	ID         uuid.UUID `json:"id" firestore:"id"`
	URL        string    `json:"url" firestore:"url"`
	Filename   string    `json:"filename" firestore:"filename"`
	Type       string    `json:"type" firestore:"type"`
	Size       int64     `json:"size" firestore:"size"`
	UploadedBy string    `json:"uploaded_by" firestore:"uploadedBy"`
	UploadedAt time.Time `json:"uploaded_at" firestore:"uploadedAt"`
}

type Share struct {
	UserID     string     `json:"user_id" firestore:"userId"`
	Permission Permission `json:"permission" firestore:"permission"`
	SharedAt   time.Time  `json:"shared_at" firestore:"sharedAt"`
}

type ChecklistProgress struct {
	Total     int `json:"total" firestore:"total"`
	Completed int `json:"completed" firestore:"completed"`
}

// Activity is an audit entry. Entries are appended, never edited.
type Activity struct {
	Action    Action            `json:"action" firestore:"action"`
	ActorID   string            `json:"actor_id" firestore:"actorId"`
	Changes   map[string]Change `json:"changes,omitempty" firestore:"changes"`
	Timestamp time.Time         `json:"timestamp" firestore:"timestamp"`
}

type Change struct {
	Old any `json:"old" firestore:"old"`
	New any `json:"new" firestore:"new"`
}

type Status string
type Priority string
type Label string
type Permission string
type Action string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusOnHold     Status = "on-hold"
)

var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusBlocked, StatusOnHold}

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for sorting, low first.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

const (
	LabelNone   Label = ""
	LabelRed    Label = "red"
	LabelOrange Label = "orange"
	LabelYellow Label = "yellow"
	LabelGreen  Label = "green"
	LabelBlue   Label = "blue"
	LabelPurple Label = "purple"
	LabelPink   Label = "pink"
	LabelGray   Label = "gray"
)

const (
	PermissionView  Permission = "view"
	PermissionEdit  Permission = "edit"
	PermissionAdmin Permission = "admin"
)

const (
	ActionCreated         Action = "created"
	ActionUpdated         Action = "updated"
	ActionCommented       Action = "commented"
	ActionCompleted       Action = "completed"
	ActionStatusChanged   Action = "status-changed"
	ActionAssigned        Action = "assigned"
	ActionPriorityChanged Action = "priority-changed"
)

const (
	DefaultCategory = "general"
	CopySuffix      = " (Copy)"
)

// ShareFor returns the share entry for userID, if any.
func (t *Task) ShareFor(userID string) (Share, bool) {
	for _, s := range t.SharedWith {
		if s.UserID == userID {
			return s, true
		}
	}
	return Share{}, false
}

func (t *Task) HasWatcher(userID string) bool {
	for _, w := range t.Watchers {
		if w == userID {
			return true
		}
	}
	return false
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(now)
}

// Audience is everyone interested in changes to the task besides actorID.
func (t *Task) Audience(actorID string) []string {
	seen := map[string]struct{}{actorID: {}}
	var res []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	add(t.OwnerID)
	add(t.AssignedTo)
	for _, w := range t.Watchers {
		add(w)
	}
	return res
}
