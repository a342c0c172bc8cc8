package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/model"
)

// UpsertMember inserts or replaces a tenant roster entry.
func (s *SQLiteStore) UpsertMember(ctx context.Context, m model.Member) error {
	if m.UserID == "" || m.TenantID == "" {
		return fmt.Errorf("member requires user id and tenant id")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO members (user_id, tenant_id, display_name, email, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.UserID, m.TenantID, m.DisplayName, m.Email, boolToInt(m.Active), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting member %s: %w", m.UserID, err)
	}
	return nil
}

// ListMembers retrieves a tenant's roster ordered by display name.
func (s *SQLiteStore) ListMembers(ctx context.Context, tenantID string, activeOnly bool) ([]model.Member, error) {
	query := "SELECT user_id, tenant_id, display_name, email, active, created_at FROM members WHERE tenant_id = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY display_name"

	rows, err := s.db.QueryxContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		var active int
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.DisplayName, &m.Email, &active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		m.Active = active != 0
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateTaskType inserts a new task type.
func (s *SQLiteStore) CreateTaskType(ctx context.Context, tt *model.TaskType) error {
	if strings.TrimSpace(tt.Label) == "" {
		return fmt.Errorf("task type label must not be empty")
	}
	if tt.ID == "" {
		tt.ID = uuid.New().String()
	}
	tt.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO task_types (id, tenant_id, label, color, created_at) VALUES (?, ?, ?, ?, ?)",
		tt.ID, tt.TenantID, tt.Label, tt.Color, tt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task type: %w", err)
	}
	return nil
}

// DeleteTaskType removes a task type by ID.
func (s *SQLiteStore) DeleteTaskType(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM task_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task type %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task type %s not found", id)
	}
	return nil
}

// ListTaskTypes retrieves a tenant's task types ordered by label.
func (s *SQLiteStore) ListTaskTypes(ctx context.Context, tenantID string) ([]model.TaskType, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, tenant_id, label, color, created_at FROM task_types WHERE tenant_id = ? ORDER BY label",
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying task types: %w", err)
	}
	defer rows.Close()

	var types []model.TaskType
	for rows.Next() {
		var tt model.TaskType
		if err := rows.Scan(&tt.ID, &tt.TenantID, &tt.Label, &tt.Color, &tt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning task type row: %w", err)
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

// UpsertEntityRef inserts or replaces the display name for an external
// business object.
func (s *SQLiteStore) UpsertEntityRef(ctx context.Context, ref model.EntityRef) error {
	if ref.EntityType == "" || ref.EntityID == "" {
		return fmt.Errorf("entity ref requires entity type and id")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO entity_refs (tenant_id, entity_type, entity_id, name, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ref.TenantID, ref.EntityType, ref.EntityID, ref.Name, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting entity ref %s/%s: %w", ref.EntityType, ref.EntityID, err)
	}
	return nil
}
