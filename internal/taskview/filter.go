// Package taskview filters and orders in-memory task lists by
// perspective, timeframe, search, and completion visibility.
package taskview

import (
	"sort"
	"strings"
	"time"

	"github.com/opsboard/opsboard/internal/model"
)

// Perspective names a task-visibility lens.
const (
	PerspectiveMyAssigned  = "my_assigned"
	PerspectiveCreatedByMe = "created_by_me"
	PerspectiveAll         = "all_accessible"
)

// Timeframe names a due-date bucket.
const (
	TimeframeOverdue  = "overdue"
	TimeframeDueToday = "due_today"
	TimeframeLater    = "later"
	TimeframeAll      = "all"
)

// State is the full filter selection applied to a task list.
// When EntityType is set the list is scoped to a single business
// object and every filter except ShowCompleted is bypassed, so a task
// can never be hidden inside its own entity's activity feed.
type State struct {
	ShowCompleted bool
	Perspective   string
	Timeframe     string
	Search        string
	AssignedTo    string
	EntityType    string
	EntityID      string
	SortBy        string // "due_date", "priority", "created_at", "title"
	SortDesc      bool
}

// EntityScoped reports whether the state is pinned to one entity.
func (s State) EntityScoped() bool {
	return s.EntityType != ""
}

// Apply filters and sorts tasks for the given state and viewer. It is a
// pure function: the input slice is not mutated and equal sort keys
// keep their input order.
func Apply(tasks []model.Task, st State, currentUserID string, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t, st, currentUserID, now) {
			out = append(out, t)
		}
	}
	sortTasks(out, st)
	return out
}

func keep(t model.Task, st State, currentUserID string, now time.Time) bool {
	// Completed visibility gates completed tasks regardless of scope;
	// when shown, they bypass the perspective and timeframe checks.
	if t.IsCompleted() {
		if !st.ShowCompleted {
			return false
		}
		if st.EntityScoped() {
			return true
		}
		return matchSearch(t, st.Search) && matchAssignee(t, st.AssignedTo)
	}

	if st.EntityScoped() {
		return true
	}

	if !matchPerspective(t, st.Perspective, currentUserID) {
		return false
	}
	if !matchTimeframe(t, st.Timeframe, now) {
		return false
	}
	return matchSearch(t, st.Search) && matchAssignee(t, st.AssignedTo)
}

func matchPerspective(t model.Task, perspective, currentUserID string) bool {
	switch perspective {
	case PerspectiveMyAssigned:
		return t.HasAssignee(currentUserID)
	case PerspectiveCreatedByMe:
		return t.CreatedBy == currentUserID
	default:
		return true
	}
}

// matchTimeframe buckets by calendar date only; wall-clock times are
// ignored. Tasks without a due date fall into "later".
func matchTimeframe(t model.Task, timeframe string, now time.Time) bool {
	today := now.Format(model.DateFormat)
	switch timeframe {
	case TimeframeOverdue:
		return t.DueDate != "" && t.DueDate < today
	case TimeframeDueToday:
		return t.DueDate == today
	case TimeframeLater:
		return t.DueDate == "" || t.DueDate > today
	default:
		return true
	}
}

func matchSearch(t model.Task, search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func matchAssignee(t model.Task, assignedTo string) bool {
	return assignedTo == "" || t.AssignedTo == assignedTo
}

// priorityRank orders priorities from most to least urgent.
var priorityRank = map[string]int{
	model.PriorityUrgent: 0,
	model.PriorityHigh:   1,
	model.PriorityMedium: 2,
	model.PriorityLow:    3,
}

func sortTasks(tasks []model.Task, st State) {
	less := func(a, b model.Task) bool {
		switch st.SortBy {
		case "priority":
			return priorityRank[a.Priority] < priorityRank[b.Priority]
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		default:
			// Due date: absent dates sort as infinitely far away.
			if (a.DueDate == "") != (b.DueDate == "") {
				return b.DueDate == ""
			}
			return a.DueDate < b.DueDate
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if st.SortDesc {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}
