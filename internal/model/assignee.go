package model

import (
	"strings"
	"time"
)

// PendingIDPrefix marks assignee rows that exist only locally, attached to
// a task that has not been persisted yet. They are flushed to the store
// once the task gains an identity.
const PendingIDPrefix = "pending-"

// Assignee is a join row linking a task to an additional assigned user,
// with profile display fields denormalized for list rendering.
type Assignee struct {
	ID          string    `json:"id" db:"id"`
	TaskID      string    `json:"task_id" db:"task_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsPending reports whether this assignee has not been persisted yet.
func (a *Assignee) IsPending() bool {
	return strings.HasPrefix(a.ID, PendingIDPrefix)
}
