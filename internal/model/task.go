package model

import (
	"fmt"
	"strings"
	"time"
)

// Task status constants.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Entity types a task can be linked to. EntityStandalone means the task
// is not attached to any business object and carries no entity id.
const (
	EntityDeal       = "deal"
	EntityContract   = "contract"
	EntityContact    = "contact"
	EntityCompany    = "company"
	EntitySite       = "site"
	EntityStandalone = "standalone"
)

// Duration defaults and bounds, in minutes.
const (
	DefaultDuration        = 10
	DefaultSubtaskDuration = 15
	MinDuration            = 5
)

// DateFormat is the calendar-date layout used for due_date values.
const DateFormat = "2006-01-02"

// Task is a to-do item scoped to a tenant. Dates are stored as
// YYYY-MM-DD strings and wall-clock times as HH:MM strings; an empty
// string means the field is unset.
type Task struct {
	ID          string `json:"id" db:"id"`
	TenantID    string `json:"tenant_id" db:"tenant_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Notes       string `json:"notes" db:"notes"`
	Status      string `json:"status" db:"status"`
	Priority    string `json:"priority" db:"priority"`

	DueDate   string `json:"due_date,omitempty" db:"due_date"`
	StartTime string `json:"start_time,omitempty" db:"start_time"`
	DueTime   string `json:"due_time,omitempty" db:"due_time"`
	Duration  int    `json:"duration" db:"duration"`

	AssignedTo    string `json:"assigned_to,omitempty" db:"assigned_to"`
	EntityType    string `json:"entity_type" db:"entity_type"`
	EntityID      string `json:"entity_id,omitempty" db:"entity_id"`
	ParentTodoID  string `json:"parent_todo_id,omitempty" db:"parent_todo_id"`
	PaymentTermID string `json:"payment_term_id,omitempty" db:"payment_term_id"`
	TypeID        string `json:"type_id,omitempty" db:"type_id"`

	CreatedBy   string     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CompletedBy string     `json:"completed_by,omitempty" db:"completed_by"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Display fields populated by batched enrichment queries.
	AssigneeName     string     `json:"assignee_name,omitempty" db:"-"`
	EntityName       string     `json:"entity_name,omitempty" db:"-"`
	TypeLabel        string     `json:"type_label,omitempty" db:"-"`
	TypeColor        string     `json:"type_color,omitempty" db:"-"`
	Assignees        []Assignee `json:"assignees,omitempty" db:"-"`
	SubtaskCount     int        `json:"subtask_count,omitempty" db:"-"`
	SubtaskDoneCount int        `json:"subtask_done_count,omitempty" db:"-"`
}

// IsCompleted reports whether the task is in the completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// IsSubtask reports whether the task has a parent.
func (t *Task) IsSubtask() bool {
	return t.ParentTodoID != ""
}

// HasAssignee reports whether userID is the primary assignee or present
// in the additional-assignee set.
func (t *Task) HasAssignee(userID string) bool {
	if t.AssignedTo == userID {
		return true
	}
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// Validate checks structural invariants before a task is persisted.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if t.TenantID == "" {
		return fmt.Errorf("task tenant id must not be empty")
	}
	switch t.Status {
	case StatusPending, StatusInProgress, StatusCompleted:
	default:
		return fmt.Errorf("invalid task status %q", t.Status)
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	default:
		return fmt.Errorf("invalid task priority %q", t.Priority)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("task duration must be positive, got %d", t.Duration)
	}
	switch t.EntityType {
	case EntityStandalone:
		if t.EntityID != "" {
			return fmt.Errorf("standalone task must not carry an entity id")
		}
	case EntityDeal, EntityContract, EntityContact, EntityCompany, EntitySite:
		if t.EntityID == "" {
			return fmt.Errorf("entity type %q requires an entity id", t.EntityType)
		}
	default:
		return fmt.Errorf("invalid entity type %q", t.EntityType)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateFormat, t.DueDate); err != nil {
			return fmt.Errorf("invalid due date %q: expected YYYY-MM-DD", t.DueDate)
		}
	}
	return nil
}
