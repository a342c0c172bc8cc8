// Package store implements SQLite persistence for tasks, assignees,
// members, task types, and activity history.
package store

import (
	"context"

	"github.com/opsboard/opsboard/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
// TenantID is required; soft-deleted rows are always excluded.
type TaskFilter struct {
	TenantID   string
	Status     *string // "pending", "in_progress", "completed", or nil (all)
	AssignedTo *string // exact primary-assignee user id, or nil (all)
	EntityType *string // scope to one entity type, or nil
	EntityID   *string // scope to one entity id, or nil
	ParentID   *string // "" (root tasks only), a task id (its subtasks), or nil (all)
	DueDate    *string // exact YYYY-MM-DD match, or nil
	Query      *string // search title + description
	SortBy     string  // "due_date", "priority", "created_at", "updated_at", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for the to-do subsystem.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	SoftDeleteTask(ctx context.Context, id string, deletedBy string) error
	CompleteTask(ctx context.Context, id string, completedBy string) error
	ReopenTask(ctx context.Context, id string) error
	EnrichTasks(ctx context.Context, tenantID string, tasks []model.Task) error

	// === Assignees ===

	AddAssignee(ctx context.Context, a *model.Assignee) error
	RemoveAssignee(ctx context.Context, id string) error
	GetAssigneesForTask(ctx context.Context, taskID string) ([]model.Assignee, error)
	GetAssigneesForTasks(ctx context.Context, taskIDs []string) (map[string][]model.Assignee, error)

	// === Members ===

	UpsertMember(ctx context.Context, m model.Member) error
	ListMembers(ctx context.Context, tenantID string, activeOnly bool) ([]model.Member, error)

	// === Task types ===

	CreateTaskType(ctx context.Context, tt *model.TaskType) error
	DeleteTaskType(ctx context.Context, id string) error
	ListTaskTypes(ctx context.Context, tenantID string) ([]model.TaskType, error)

	// === Entity refs ===

	UpsertEntityRef(ctx context.Context, ref model.EntityRef) error

	// === Activity log ===

	RecordActivity(ctx context.Context, e *model.ActivityEntry) error
	GetActivityForTask(ctx context.Context, taskID string) ([]model.ActivityEntry, error)
}
