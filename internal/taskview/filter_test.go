package taskview

import (
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/model"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func task(id string, mut func(*model.Task)) model.Task {
	t := model.Task{
		ID:       id,
		Title:    "task " + id,
		Status:   model.StatusPending,
		Priority: model.PriorityMedium,
	}
	if mut != nil {
		mut(&t)
	}
	return t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyPerspectiveMyAssigned(t *testing.T) {
	tasks := []model.Task{
		task("t1", func(x *model.Task) { x.AssignedTo = "U1" }),
		task("t2", func(x *model.Task) {
			x.AssignedTo = "U2"
			x.Assignees = []model.Assignee{{UserID: "U1"}}
		}),
		task("t3", func(x *model.Task) { x.AssignedTo = "U2" }),
	}

	got := Apply(tasks, State{Perspective: PerspectiveMyAssigned}, "U1", testNow)
	if !equalIDs(ids(got), []string{"t1", "t2"}) {
		t.Errorf("got %v, want [t1 t2]", ids(got))
	}
}

func TestApplyPerspectiveCreatedByMe(t *testing.T) {
	tasks := []model.Task{
		task("t1", func(x *model.Task) { x.CreatedBy = "U1" }),
		task("t2", func(x *model.Task) { x.CreatedBy = "U2" }),
	}

	got := Apply(tasks, State{Perspective: PerspectiveCreatedByMe}, "U1", testNow)
	if !equalIDs(ids(got), []string{"t1"}) {
		t.Errorf("got %v, want [t1]", ids(got))
	}
}

func TestApplyTimeframes(t *testing.T) {
	tasks := []model.Task{
		task("overdue", func(x *model.Task) { x.DueDate = "2025-03-09" }),
		task("today", func(x *model.Task) { x.DueDate = "2025-03-10" }),
		task("later", func(x *model.Task) { x.DueDate = "2025-03-11" }),
		task("undated", nil),
	}

	tests := []struct {
		timeframe string
		want      []string
	}{
		{TimeframeOverdue, []string{"overdue"}},
		{TimeframeDueToday, []string{"today"}},
		{TimeframeLater, []string{"later", "undated"}},
		{TimeframeAll, []string{"overdue", "today", "later", "undated"}},
	}
	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			got := Apply(tasks, State{Timeframe: tt.timeframe, SortBy: "created_at"}, "U1", testNow)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestApplyCompletedVisibility(t *testing.T) {
	tasks := []model.Task{
		task("open", nil),
		task("done", func(x *model.Task) { x.Status = model.StatusCompleted }),
	}

	got := Apply(tasks, State{}, "U1", testNow)
	if !equalIDs(ids(got), []string{"open"}) {
		t.Errorf("toggle off: got %v, want [open]", ids(got))
	}

	got = Apply(tasks, State{ShowCompleted: true}, "U1", testNow)
	if !equalIDs(ids(got), []string{"open", "done"}) {
		t.Errorf("toggle on: got %v, want [open done]", ids(got))
	}
}

// Completed tasks bypass perspective and timeframe once visible.
func TestApplyCompletedShortCircuit(t *testing.T) {
	tasks := []model.Task{
		task("done", func(x *model.Task) {
			x.Status = model.StatusCompleted
			x.AssignedTo = "U2"
			x.CreatedBy = "U2"
			x.DueDate = "2025-01-01"
		}),
	}

	st := State{
		ShowCompleted: true,
		Perspective:   PerspectiveMyAssigned,
		Timeframe:     TimeframeDueToday,
	}
	got := Apply(tasks, st, "U1", testNow)
	if !equalIDs(ids(got), []string{"done"}) {
		t.Errorf("got %v, want [done]", ids(got))
	}
}

func TestApplySearch(t *testing.T) {
	tasks := []model.Task{
		task("t1", func(x *model.Task) { x.Title = "Call the supplier" }),
		task("t2", func(x *model.Task) { x.Description = "supplier follow-up" }),
		task("t3", func(x *model.Task) { x.Title = "Unrelated" }),
	}

	got := Apply(tasks, State{Search: "SUPPLIER", SortBy: "created_at"}, "U1", testNow)
	if !equalIDs(ids(got), []string{"t1", "t2"}) {
		t.Errorf("got %v, want [t1 t2]", ids(got))
	}
}

func TestApplyAssigneeFilter(t *testing.T) {
	tasks := []model.Task{
		task("t1", func(x *model.Task) { x.AssignedTo = "U1" }),
		task("t2", func(x *model.Task) {
			x.AssignedTo = "U2"
			x.Assignees = []model.Assignee{{UserID: "U1"}}
		}),
	}

	// The assignee filter matches the primary field only.
	got := Apply(tasks, State{AssignedTo: "U1"}, "U1", testNow)
	if !equalIDs(ids(got), []string{"t1"}) {
		t.Errorf("got %v, want [t1]", ids(got))
	}
}

// Inside an entity's own feed, every filter except the completed
// toggle is bypassed.
func TestApplyEntityScopeEscapeHatch(t *testing.T) {
	tasks := []model.Task{
		task("t1", func(x *model.Task) {
			x.AssignedTo = "U2"
			x.DueDate = "2020-01-01"
		}),
		task("t2", func(x *model.Task) { x.Status = model.StatusCompleted }),
	}

	base := State{EntityType: model.EntityDeal, EntityID: "d1"}

	variants := []State{
		base,
		{EntityType: model.EntityDeal, EntityID: "d1", Perspective: PerspectiveMyAssigned},
		{EntityType: model.EntityDeal, EntityID: "d1", Timeframe: TimeframeDueToday},
		{EntityType: model.EntityDeal, EntityID: "d1", Search: "no-match"},
		{EntityType: model.EntityDeal, EntityID: "d1", AssignedTo: "U9"},
	}
	want := ids(Apply(tasks, base, "U1", testNow))
	for i, st := range variants {
		got := ids(Apply(tasks, st, "U1", testNow))
		if !equalIDs(got, want) {
			t.Errorf("variant %d changed the visible set: got %v, want %v", i, got, want)
		}
	}

	// The completed toggle still applies.
	withDone := base
	withDone.ShowCompleted = true
	got := Apply(tasks, withDone, "U1", testNow)
	if !equalIDs(ids(got), []string{"t1", "t2"}) {
		t.Errorf("show_completed in entity scope: got %v, want [t1 t2]", ids(got))
	}
}

func TestApplyIdempotent(t *testing.T) {
	tasks := []model.Task{
		task("b", func(x *model.Task) { x.DueDate = "2025-03-12" }),
		task("a", func(x *model.Task) { x.DueDate = "2025-03-11" }),
		task("c", nil),
	}
	st := State{SortBy: "due_date"}

	once := Apply(tasks, st, "U1", testNow)
	twice := Apply(once, st, "U1", testNow)
	if !equalIDs(ids(once), ids(twice)) {
		t.Errorf("second application changed order: %v vs %v", ids(once), ids(twice))
	}
	// Input order must be untouched.
	if tasks[0].ID != "b" || tasks[1].ID != "a" || tasks[2].ID != "c" {
		t.Error("Apply mutated its input slice")
	}
}

func TestSortDueDateNullsLast(t *testing.T) {
	tasks := []model.Task{
		task("undated", nil),
		task("late", func(x *model.Task) { x.DueDate = "2025-03-20" }),
		task("soon", func(x *model.Task) { x.DueDate = "2025-03-11" }),
	}

	got := Apply(tasks, State{SortBy: "due_date"}, "U1", testNow)
	if !equalIDs(ids(got), []string{"soon", "late", "undated"}) {
		t.Errorf("ascending: got %v", ids(got))
	}

	got = Apply(tasks, State{SortBy: "due_date", SortDesc: true}, "U1", testNow)
	if !equalIDs(ids(got), []string{"undated", "late", "soon"}) {
		t.Errorf("descending: got %v", ids(got))
	}
}

func TestSortPriority(t *testing.T) {
	tasks := []model.Task{
		task("low", func(x *model.Task) { x.Priority = model.PriorityLow }),
		task("urgent", func(x *model.Task) { x.Priority = model.PriorityUrgent }),
		task("medium", nil),
	}

	got := Apply(tasks, State{SortBy: "priority"}, "U1", testNow)
	if !equalIDs(ids(got), []string{"urgent", "medium", "low"}) {
		t.Errorf("got %v", ids(got))
	}
}
