// Package assign maintains the set of additional assignees on a task,
// including entries added while the task itself is still unsaved.
package assign

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsboard/opsboard/internal/model"
)

// AssigneeStore is the slice of the persistence layer the manager needs.
type AssigneeStore interface {
	AddAssignee(ctx context.Context, a *model.Assignee) error
	RemoveAssignee(ctx context.Context, id string) error
}

// Manager holds the assignee list for one task. For a persisted task,
// additions and removals write through immediately; for a task still
// being composed, entries are kept locally under temporary ids and
// flushed by Commit once the task exists.
type Manager struct {
	store  AssigneeStore
	taskID string
	list   []model.Assignee
}

// NewManager creates a manager for the given task id (empty when the
// task is not persisted yet) seeded with the current assignee list.
func NewManager(store AssigneeStore, taskID string, current []model.Assignee) *Manager {
	list := make([]model.Assignee, len(current))
	copy(list, current)
	return &Manager{store: store, taskID: taskID, list: list}
}

// Assignees returns a copy of the current list.
func (m *Manager) Assignees() []model.Assignee {
	out := make([]model.Assignee, len(m.list))
	copy(out, m.list)
	return out
}

// Add appends a roster member to the assignee list. Adding a user who
// is already present is a no-op. Persisted tasks get one remote write
// and the local entry reflects the stored row; unpersisted tasks get a
// local entry with a temporary id.
func (m *Manager) Add(ctx context.Context, member model.Member) error {
	for _, a := range m.list {
		if a.UserID == member.UserID {
			return nil
		}
	}

	a := model.Assignee{
		TaskID:      m.taskID,
		UserID:      member.UserID,
		DisplayName: member.DisplayName,
		Email:       member.Email,
	}

	if m.taskID == "" {
		a.ID = model.PendingIDPrefix + uuid.New().String()
		m.list = append(m.list, a)
		return nil
	}

	if err := m.store.AddAssignee(ctx, &a); err != nil {
		return fmt.Errorf("adding assignee %s: %w", member.UserID, err)
	}
	m.list = append(m.list, a)
	return nil
}

// Remove drops an assignee from the list. Temporary entries are removed
// locally without any remote call; persisted entries are deleted
// remotely and removed from the local list optimistically.
func (m *Manager) Remove(ctx context.Context, assignee model.Assignee) error {
	idx := -1
	for i, a := range m.list {
		if a.ID == assignee.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	if !assignee.IsPending() {
		if err := m.store.RemoveAssignee(ctx, assignee.ID); err != nil {
			return fmt.Errorf("removing assignee %s: %w", assignee.ID, err)
		}
	}

	m.list = append(m.list[:idx], m.list[idx+1:]...)
	return nil
}

// Candidates returns the roster members that can still be added: active
// members not already present in the list.
func (m *Manager) Candidates(roster []model.Member) []model.Member {
	present := make(map[string]struct{}, len(m.list))
	for _, a := range m.list {
		present[a.UserID] = struct{}{}
	}

	var out []model.Member
	for _, member := range roster {
		if !member.Active {
			continue
		}
		if _, ok := present[member.UserID]; ok {
			continue
		}
		out = append(out, member)
	}
	return out
}

// Commit flushes pending entries once the composed task has been saved
// under taskID. Already-persisted entries are left untouched.
func (m *Manager) Commit(ctx context.Context, taskID string) error {
	m.taskID = taskID
	for i := range m.list {
		if !m.list[i].IsPending() {
			continue
		}
		m.list[i].TaskID = taskID
		m.list[i].ID = ""
		if err := m.store.AddAssignee(ctx, &m.list[i]); err != nil {
			return fmt.Errorf("committing assignee %s: %w", m.list[i].UserID, err)
		}
	}
	return nil
}
