package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/model"
)

// taskColumns is the canonical column list for task scans.
const taskColumns = `id, tenant_id, title, description, notes, status, priority,
	due_date, start_time, due_time, duration,
	assigned_to, entity_type, entity_id, parent_todo_id, payment_term_id, type_id,
	created_by, created_at, updated_at, completed_at, completed_by, deleted_at`

// CreateTask inserts a new task. Generates a UUID if ID is empty and
// applies default status, priority, and duration.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Duration <= 0 {
		task.Duration = model.DefaultDuration
	}
	if task.EntityType == "" {
		task.EntityType = model.EntityStandalone
	}
	if err := task.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.TenantID, task.Title, task.Description, task.Notes,
		task.Status, task.Priority,
		task.DueDate, task.StartTime, task.DueTime, task.Duration,
		task.AssignedTo, task.EntityType, task.EntityID, task.ParentTodoID,
		task.PaymentTermID, task.TypeID,
		task.CreatedBy, task.CreatedAt, task.UpdatedAt,
		task.CompletedAt, task.CompletedBy, task.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask overwrites an existing task row with the full field set.
// Writes are last-write-wins; no version precondition is checked.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *model.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	task.UpdatedAt = now

	// Auto-manage completion fields based on status.
	if task.Status == model.StatusCompleted && task.CompletedAt == nil {
		task.CompletedAt = &now
	} else if task.Status != model.StatusCompleted {
		task.CompletedAt = nil
		task.CompletedBy = ""
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, notes = ?, status = ?, priority = ?,
			due_date = ?, start_time = ?, due_time = ?, duration = ?,
			assigned_to = ?, entity_type = ?, entity_id = ?, parent_todo_id = ?,
			payment_term_id = ?, type_id = ?,
			updated_at = ?, completed_at = ?, completed_by = ?
		WHERE id = ? AND deleted_at IS NULL`,
		task.Title, task.Description, task.Notes, task.Status, task.Priority,
		task.DueDate, task.StartTime, task.DueTime, task.Duration,
		task.AssignedTo, task.EntityType, task.EntityID, task.ParentTodoID,
		task.PaymentTermID, task.TypeID,
		task.UpdatedAt, task.CompletedAt, task.CompletedBy,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", task.ID)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID, including soft-deleted rows
// so callers can inspect deletion state.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// ListTasks retrieves tasks matching the filter. Soft-deleted rows are
// always excluded.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// SoftDeleteTask flags a task as deleted. The row is retained; all list
// queries exclude it from then on. Subtasks are flagged along with the
// parent.
func (s *SQLiteStore) SoftDeleteTask(ctx context.Context, id string, deletedBy string) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("soft-deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE tasks SET deleted_at = ?, updated_at = ? WHERE parent_todo_id = ? AND deleted_at IS NULL",
		now, now, id,
	); err != nil {
		return fmt.Errorf("soft-deleting subtasks of %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO activity_log (id, task_id, action, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), id, model.ActivityDeleted, deletedBy, now,
	); err != nil {
		return fmt.Errorf("recording delete activity for %s: %w", id, err)
	}

	return tx.Commit()
}

// CompleteTask transitions a task to completed and stamps the actor.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id string, completedBy string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ?, completed_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		model.StatusCompleted, now, completedBy, now, id,
	)
	if err != nil {
		return fmt.Errorf("completing task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// ReopenTask transitions a completed task back to pending and clears
// the completion fields.
func (s *SQLiteStore) ReopenTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = NULL, completed_by = '', updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		model.StatusPending, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("reopening task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	conditions := []string{"tenant_id = ?", "deleted_at IS NULL"}
	args := []interface{}{filter.TenantID}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, "assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.EntityType != nil {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, *filter.EntityType)
	}
	if filter.EntityID != nil {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, *filter.EntityID)
	}
	if filter.ParentID != nil {
		if *filter.ParentID == "" {
			conditions = append(conditions, "parent_todo_id = ''")
		} else {
			conditions = append(conditions, "parent_todo_id = ?")
			args = append(args, *filter.ParentID)
		}
	}
	if filter.DueDate != nil {
		conditions = append(conditions, "due_date = ?")
		args = append(args, *filter.DueDate)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " +
		strings.Join(conditions, " AND ")

	// Determine sort column. Empty due dates sort last on ascending order.
	sortBy := "created_at"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"due_date":   "CASE WHEN due_date = '' THEN 1 ELSE 0 END, due_date",
			"priority":   "priority",
			"created_at": "created_at",
			"updated_at": "updated_at",
			"title":      "title",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// scanTask scans a task row in taskColumns order.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task        model.Task
		completedAt *time.Time
		deletedAt   *time.Time
	)

	err := row.Scan(
		&task.ID, &task.TenantID, &task.Title, &task.Description, &task.Notes,
		&task.Status, &task.Priority,
		&task.DueDate, &task.StartTime, &task.DueTime, &task.Duration,
		&task.AssignedTo, &task.EntityType, &task.EntityID, &task.ParentTodoID,
		&task.PaymentTermID, &task.TypeID,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
		&completedAt, &task.CompletedBy, &deletedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.CompletedAt = completedAt
	task.DeletedAt = deletedAt
	return task, nil
}
