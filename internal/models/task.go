package models

import "time"

// Task statuses and priorities.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"

	TaskPriorityUrgent = "urgent"
	TaskPriorityHigh   = "high"
	TaskPriorityMedium = "medium"
	TaskPriorityLow    = "low"
)

// Task is an actionable work item, optionally linked to another entity.
type Task struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Status        string     `db:"status" json:"status"`
	Priority      string     `db:"priority" json:"priority"`
	AssignedTo    *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	RelatedToType *string    `db:"related_to_type" json:"related_to_type,omitempty"`
	RelatedToID   *string    `db:"related_to_id" json:"related_to_id,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// TaskDetail joins assignee and creator display fields.
type TaskDetail struct {
	Task
	AssignedToName  *string `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	AssignedToEmail *string `db:"assigned_to_email" json:"assigned_to_email,omitempty"`
	CreatedByName   *string `db:"created_by_name" json:"created_by_name,omitempty"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Status      string
	Priority    string
	AssignedTo  string
	DueDate     *time.Time
	RelatedType string
	RelatedID   string
	Search      string
	Page        int
	PageSize    int
}
