package model

import "time"

// Activity action constants.
const (
	ActivityCreated      = "created"
	ActivityUpdated      = "updated"
	ActivityCompleted    = "completed"
	ActivityReopened     = "reopened"
	ActivityPostponed    = "postponed"
	ActivityDeleted      = "deleted"
	ActivityAssigneeAdd  = "assignee_added"
	ActivityAssigneeDrop = "assignee_removed"
)

// ActivityEntry is an append-only audit record for a task. Entries are
// written by the service layer and consumed for display only.
type ActivityEntry struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	Action    string    `json:"action" db:"action"`
	Field     string    `json:"field,omitempty" db:"field"`
	OldValue  string    `json:"old_value,omitempty" db:"old_value"`
	NewValue  string    `json:"new_value,omitempty" db:"new_value"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
