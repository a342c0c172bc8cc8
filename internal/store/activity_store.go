package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/model"
)

// RecordActivity appends an audit entry for a task.
func (s *SQLiteStore) RecordActivity(ctx context.Context, e *model.ActivityEntry) error {
	if e.TaskID == "" || e.Action == "" {
		return fmt.Errorf("activity entry requires task id and action")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, task_id, action, field, old_value, new_value, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.Action, e.Field, e.OldValue, e.NewValue, e.ActorID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("recording activity for task %s: %w", e.TaskID, err)
	}
	return nil
}

// GetActivityForTask retrieves a task's audit history, newest first.
func (s *SQLiteStore) GetActivityForTask(ctx context.Context, taskID string) ([]model.ActivityEntry, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, task_id, action, field, old_value, new_value, actor_id, created_at
		FROM activity_log WHERE task_id = ? ORDER BY created_at DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying activity for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Action, &e.Field,
			&e.OldValue, &e.NewValue, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
