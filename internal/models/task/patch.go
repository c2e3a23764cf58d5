package task

import "time"

// TaskPatch lists every top-level field an update may touch. Nil means
// "leave as is". Status cannot be moved to or from completed here, that
// goes through the complete/incomplete operations.
type TaskPatch struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category      *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	Tags          *[]string  `json:"tags,omitempty" validate:"omitempty,max=20,unique,dive,required,max=50"`
	Label         *Label     `json:"label,omitempty" validate:"omitempty,label"`
	Status        *Status    `json:"status,omitempty" validate:"omitempty,status"`
	Priority      *Priority  `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	Reminder      *time.Time `json:"reminder,omitempty"`
	EstimatedTime *int       `json:"estimated_time,omitempty" validate:"omitempty,min=0"`
	IsPublic      *bool      `json:"is_public,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Tags == nil &&
		p.Label == nil && p.Status == nil && p.Priority == nil && p.DueDate == nil &&
		p.StartDate == nil && p.Reminder == nil && p.EstimatedTime == nil && p.IsPublic == nil
}

// SubtaskPatch lists the fields a subtask update may touch.
type SubtaskPatch struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,status"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

func (p SubtaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.Completed == nil
}
