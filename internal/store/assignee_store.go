package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/model"
)

// AddAssignee inserts an assignee join row for a task. Adding a user
// who is already assigned is a no-op.
func (s *SQLiteStore) AddAssignee(ctx context.Context, a *model.Assignee) error {
	if a.TaskID == "" || a.UserID == "" {
		return fmt.Errorf("assignee requires task id and user id")
	}
	if a.ID == "" || a.IsPending() {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO task_assignees (id, task_id, user_id, display_name, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.TaskID, a.UserID, a.DisplayName, a.Email, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("adding assignee %s to task %s: %w", a.UserID, a.TaskID, err)
	}
	return nil
}

// RemoveAssignee deletes an assignee join row by its id.
func (s *SQLiteStore) RemoveAssignee(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM task_assignees WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("removing assignee %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("assignee %s not found", id)
	}
	return nil
}

// GetAssigneesForTask retrieves all assignees of one task.
func (s *SQLiteStore) GetAssigneesForTask(ctx context.Context, taskID string) ([]model.Assignee, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, task_id, user_id, display_name, email, created_at
		FROM task_assignees WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying assignees for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var assignees []model.Assignee
	for rows.Next() {
		var a model.Assignee
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.DisplayName, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning assignee row: %w", err)
		}
		assignees = append(assignees, a)
	}
	return assignees, rows.Err()
}

// GetAssigneesForTasks retrieves assignees for a batch of tasks with a
// single query, keyed by task id.
func (s *SQLiteStore) GetAssigneesForTasks(ctx context.Context, taskIDs []string) (map[string][]model.Assignee, error) {
	result := make(map[string][]model.Assignee)
	if len(taskIDs) == 0 {
		return result, nil
	}

	query, args := inQuery(`
		SELECT id, task_id, user_id, display_name, email, created_at
		FROM task_assignees WHERE task_id IN (%s) ORDER BY created_at`, nil, taskIDs)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Assignee
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.DisplayName, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning assignee row: %w", err)
		}
		result[a.TaskID] = append(result[a.TaskID], a)
	}
	return result, rows.Err()
}
