package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsboard/opsboard/internal/model"
)

// EnrichTasks populates display fields (assignee names, entity names,
// type labels, additional assignees, subtask counts) for a batch of
// tasks. Each concern is resolved with a single IN-list query rather
// than one lookup per row.
func (s *SQLiteStore) EnrichTasks(ctx context.Context, tenantID string, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]string, 0, len(tasks))
	userIDs := make(map[string]struct{})
	typeIDs := make(map[string]struct{})
	entityKeys := make(map[[2]string]struct{})
	for _, t := range tasks {
		ids = append(ids, t.ID)
		if t.AssignedTo != "" {
			userIDs[t.AssignedTo] = struct{}{}
		}
		if t.TypeID != "" {
			typeIDs[t.TypeID] = struct{}{}
		}
		if t.EntityType != model.EntityStandalone && t.EntityID != "" {
			entityKeys[[2]string{t.EntityType, t.EntityID}] = struct{}{}
		}
	}

	assignees, err := s.GetAssigneesForTasks(ctx, ids)
	if err != nil {
		return err
	}

	names, err := s.memberNames(ctx, tenantID, keys(userIDs))
	if err != nil {
		return err
	}

	typeLabels, typeColors, err := s.typeLabels(ctx, keys(typeIDs))
	if err != nil {
		return err
	}

	entityNames, err := s.entityNames(ctx, tenantID, entityKeys)
	if err != nil {
		return err
	}

	subCounts, subDone, err := s.subtaskCounts(ctx, ids)
	if err != nil {
		return err
	}

	for i := range tasks {
		t := &tasks[i]
		t.Assignees = assignees[t.ID]
		t.AssigneeName = names[t.AssignedTo]
		t.TypeLabel = typeLabels[t.TypeID]
		t.TypeColor = typeColors[t.TypeID]
		t.EntityName = entityNames[[2]string{t.EntityType, t.EntityID}]
		t.SubtaskCount = subCounts[t.ID]
		t.SubtaskDoneCount = subDone[t.ID]
	}
	return nil
}

// memberNames resolves user ids to display names for one tenant.
func (s *SQLiteStore) memberNames(ctx context.Context, tenantID string, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	query, args := inQuery(
		"SELECT user_id, display_name FROM members WHERE tenant_id = ? AND user_id IN (%s)",
		[]interface{}{tenantID}, userIDs)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying member names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning member name row: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// typeLabels resolves type ids to labels and colors.
func (s *SQLiteStore) typeLabels(ctx context.Context, typeIDs []string) (map[string]string, map[string]string, error) {
	labels := make(map[string]string, len(typeIDs))
	colors := make(map[string]string, len(typeIDs))
	if len(typeIDs) == 0 {
		return labels, colors, nil
	}

	query, args := inQuery(
		"SELECT id, label, color FROM task_types WHERE id IN (%s)", nil, typeIDs)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying task types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label, color string
		if err := rows.Scan(&id, &label, &color); err != nil {
			return nil, nil, fmt.Errorf("scanning task type row: %w", err)
		}
		labels[id] = label
		colors[id] = color
	}
	return labels, colors, rows.Err()
}

// entityNames resolves (entity_type, entity_id) pairs to display names.
func (s *SQLiteStore) entityNames(ctx context.Context, tenantID string, entityKeys map[[2]string]struct{}) (map[[2]string]string, error) {
	names := make(map[[2]string]string, len(entityKeys))
	if len(entityKeys) == 0 {
		return names, nil
	}

	var conditions []string
	args := []interface{}{tenantID}
	for key := range entityKeys {
		conditions = append(conditions, "(entity_type = ? AND entity_id = ?)")
		args = append(args, key[0], key[1])
	}

	query := "SELECT entity_type, entity_id, name FROM entity_refs WHERE tenant_id = ? AND (" +
		strings.Join(conditions, " OR ") + ")"

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entity refs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var etype, eid, name string
		if err := rows.Scan(&etype, &eid, &name); err != nil {
			return nil, fmt.Errorf("scanning entity ref row: %w", err)
		}
		names[[2]string{etype, eid}] = name
	}
	return names, rows.Err()
}

// subtaskCounts returns total and completed subtask counts per parent id.
func (s *SQLiteStore) subtaskCounts(ctx context.Context, parentIDs []string) (map[string]int, map[string]int, error) {
	totals := make(map[string]int)
	done := make(map[string]int)
	if len(parentIDs) == 0 {
		return totals, done, nil
	}

	query, args := inQuery(`
		SELECT parent_todo_id, COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END)
		FROM tasks
		WHERE deleted_at IS NULL AND parent_todo_id IN (%s)
		GROUP BY parent_todo_id`, nil, parentIDs)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("querying subtask counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		var total, completed int
		if err := rows.Scan(&parentID, &total, &completed); err != nil {
			return nil, nil, fmt.Errorf("scanning subtask count row: %w", err)
		}
		totals[parentID] = total
		done[parentID] = completed
	}
	return totals, done, rows.Err()
}

// inQuery expands an IN-list placeholder into the query template.
func inQuery(template string, leading []interface{}, ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := append([]interface{}{}, leading...)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	return fmt.Sprintf(template, strings.Join(placeholders, ", ")), args
}

// keys collects map keys into a slice.
func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
