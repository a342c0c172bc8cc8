// Package subtask rolls child-task durations and deadlines up into the
// parent task.
package subtask

import "github.com/opsboard/opsboard/internal/model"

// Rollup is the aggregate of a parent's subtasks.
type Rollup struct {
	// TotalDuration is the sum of all subtask durations in minutes.
	TotalDuration int
	// LatestDeadline is the maximum due date among subtasks that have
	// one, empty when none do.
	LatestDeadline string
}

// Aggregate computes the rollup for the given subtasks. Soft-deleted
// rows must already be filtered out by the caller's query.
func Aggregate(subtasks []model.Task) Rollup {
	var r Rollup
	for _, st := range subtasks {
		if st.Duration > 0 {
			r.TotalDuration += st.Duration
		}
		if st.DueDate != "" && st.DueDate > r.LatestDeadline {
			r.LatestDeadline = st.DueDate
		}
	}
	return r
}

// ApplyToParent overwrites the parent's duration and due date from the
// rollup. Flow is one-directional: children drive the parent, edits to
// the parent never flow back down. Returns true when the parent
// changed.
func ApplyToParent(parent *model.Task, r Rollup) bool {
	changed := false
	if r.TotalDuration > 0 && parent.Duration != r.TotalDuration {
		parent.Duration = r.TotalDuration
		changed = true
	}
	if r.LatestDeadline != "" && parent.DueDate != r.LatestDeadline {
		parent.DueDate = r.LatestDeadline
		changed = true
	}
	return changed
}

// New creates a subtask under parent. Only the tenant scope and the
// parent linkage are inherited; everything else starts from defaults.
func New(parent *model.Task, title string) model.Task {
	return model.Task{
		TenantID:     parent.TenantID,
		ParentTodoID: parent.ID,
		Title:        title,
		Status:       model.StatusPending,
		Priority:     model.PriorityMedium,
		Duration:     model.DefaultSubtaskDuration,
		EntityType:   model.EntityStandalone,
	}
}
