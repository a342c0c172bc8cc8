package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
	"github.com/opsboard/opsboard/internal/service"
	"github.com/opsboard/opsboard/internal/store"
	"github.com/opsboard/opsboard/internal/taskview"
	"github.com/opsboard/opsboard/tests/testutil"
)

var scope = service.Scope{TenantID: "tn1", UserID: "U1"}

func newService(t *testing.T) (*service.TodoService, *store.SQLiteStore) {
	t.Helper()
	st := testutil.NewTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(st, &schedule.Deriver{}, config.CalendarConfig{}, logger)
	return svc, st
}

func TestCreateDefaultsToActor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, err := svc.Create(ctx, scope, model.Task{Title: "Call supplier"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if task.ID == "" {
		t.Fatal("no id assigned")
	}
	if task.TenantID != "tn1" || task.CreatedBy != "U1" {
		t.Errorf("scope not stamped: %+v", task)
	}
	if task.AssignedTo != "U1" {
		t.Errorf("AssignedTo = %q, want the acting user", task.AssignedTo)
	}

	entries, err := svc.Activity(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("getting activity: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActivityCreated {
		t.Errorf("activity = %+v, want one created entry", entries)
	}
}

func TestCreateDerivesTiming(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, err := svc.Create(ctx, scope, model.Task{
		Title:     "Demo",
		DueDate:   "2025-03-14",
		StartTime: "09:00",
		Duration:  30,
	})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if task.DueTime != "09:30" {
		t.Errorf("DueTime = %q, want 09:30", task.DueTime)
	}
}

func TestUpdateDerivesAndAudits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, err := svc.Create(ctx, scope, model.Task{Title: "Demo", DueDate: "2025-03-14"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	edited := *task
	edited.StartTime = "09:00"
	edited.DueTime = "10:00"
	got, err := svc.Update(ctx, scope, edited, schedule.FieldDueTime)
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	// Start and due span one hour, duration untouched so far: the span
	// becomes the duration.
	if got.Duration != 60 {
		t.Errorf("Duration = %d, want 60", got.Duration)
	}
	if got.StartTime != "09:00" || got.DueTime != "10:00" {
		t.Errorf("edited fields rewritten: %+v", got)
	}
	if got.CreatedBy != "U1" || got.TenantID != "tn1" {
		t.Errorf("audit fields lost on update: %+v", got)
	}

	entries, err := svc.Activity(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("getting activity: %v", err)
	}
	fields := make(map[string]bool)
	for _, e := range entries {
		if e.Action == model.ActivityUpdated {
			fields[e.Field] = true
		}
	}
	if !fields["start_time"] || !fields["due_time"] {
		t.Errorf("field-change entries missing: %+v", entries)
	}
}

// Completing through a full-row edit must leave both completion fields
// set, same as the dedicated complete operation.
func TestUpdateToCompletedStampsActor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})

	edited := *task
	edited.Status = model.StatusCompleted
	actor := service.Scope{TenantID: "tn1", UserID: "U2"}
	if _, err := svc.Update(ctx, actor, edited, schedule.FieldNone); err != nil {
		t.Fatalf("updating: %v", err)
	}

	got, err := svc.Get(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if got.CompletedAt == nil || got.CompletedBy != "U2" {
		t.Errorf("completion fields = %v/%q, want timestamp and U2", got.CompletedAt, got.CompletedBy)
	}
}

func TestCompleteAndReopen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})
	actor := service.Scope{TenantID: "tn1", UserID: "U2"}

	if err := svc.Complete(ctx, actor, task.ID); err != nil {
		t.Fatalf("completing: %v", err)
	}
	got, err := svc.Get(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if !got.IsCompleted() || got.CompletedBy != "U2" {
		t.Errorf("after complete: %+v", got)
	}

	if err := svc.Reopen(ctx, actor, task.ID); err != nil {
		t.Fatalf("reopening: %v", err)
	}
	got, _ = svc.Get(ctx, scope, task.ID)
	if got.IsCompleted() || got.CompletedAt != nil {
		t.Errorf("after reopen: %+v", got)
	}
}

func TestPostpone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo", DueDate: "2025-03-14"})

	got, err := svc.Postpone(ctx, scope, task.ID, 0)
	if err != nil {
		t.Fatalf("postponing: %v", err)
	}
	if got.DueDate != "2025-03-15" {
		t.Errorf("DueDate = %q, want 2025-03-15 (minimum one day)", got.DueDate)
	}

	got, err = svc.Postpone(ctx, scope, task.ID, 7)
	if err != nil {
		t.Fatalf("postponing: %v", err)
	}
	if got.DueDate != "2025-03-22" {
		t.Errorf("DueDate = %q, want 2025-03-22", got.DueDate)
	}
}

func TestPostponeClearsDerivedTimes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{
		Title:     "Demo",
		DueDate:   "2025-03-14",
		StartTime: "09:00",
		Duration:  30,
	})

	got, err := svc.Postpone(ctx, scope, task.ID, 1)
	if err != nil {
		t.Fatalf("postponing: %v", err)
	}
	if got.StartTime != "" || got.DueTime != "" {
		t.Errorf("times survived the postpone: %+v", got)
	}
}

func TestPostponeUndatedStartsFromToday(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})
	got, err := svc.Postpone(ctx, scope, task.ID, 1)
	if err != nil {
		t.Fatalf("postponing: %v", err)
	}
	want := time.Now().AddDate(0, 0, 1).Format(model.DateFormat)
	if got.DueDate != want {
		t.Errorf("DueDate = %q, want %q", got.DueDate, want)
	}
}

func TestSubtaskRollup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	parent, _ := svc.Create(ctx, scope, model.Task{Title: "Parent"})

	st1, err := svc.CreateSubtask(ctx, scope, parent.ID, "Step one")
	if err != nil {
		t.Fatalf("creating subtask: %v", err)
	}
	st2, err := svc.CreateSubtask(ctx, scope, parent.ID, "Step two")
	if err != nil {
		t.Fatalf("creating subtask: %v", err)
	}

	got, _ := svc.Get(ctx, scope, parent.ID)
	if got.Duration != 2*model.DefaultSubtaskDuration {
		t.Errorf("parent Duration = %d, want %d", got.Duration, 2*model.DefaultSubtaskDuration)
	}

	// Dating a subtask pushes the parent's deadline out.
	edited := *st2
	edited.DueDate = "2025-04-01"
	if _, err := svc.Update(ctx, scope, edited, schedule.FieldNone); err != nil {
		t.Fatalf("updating subtask: %v", err)
	}
	got, _ = svc.Get(ctx, scope, parent.ID)
	if got.DueDate != "2025-04-01" {
		t.Errorf("parent DueDate = %q, want 2025-04-01", got.DueDate)
	}

	subs, err := svc.Subtasks(ctx, scope, parent.ID)
	if err != nil {
		t.Fatalf("listing subtasks: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("subtasks = %d, want 2", len(subs))
	}
	if got.SubtaskCount != 2 {
		t.Errorf("SubtaskCount = %d, want 2", got.SubtaskCount)
	}
	_ = st1
}

func TestCreateSubtaskWrongTenant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	parent, _ := svc.Create(ctx, scope, model.Task{Title: "Parent"})
	other := service.Scope{TenantID: "tn2", UserID: "U9"}
	if _, err := svc.CreateSubtask(ctx, other, parent.ID, "Sneaky"); err == nil {
		t.Fatal("cross-tenant subtask accepted")
	}
}

func TestListViewAppliesFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	mine, _ := svc.Create(ctx, scope, model.Task{Title: "Mine"})
	theirs := service.Scope{TenantID: "tn1", UserID: "U2"}
	if _, err := svc.Create(ctx, theirs, model.Task{Title: "Theirs"}); err != nil {
		t.Fatalf("creating: %v", err)
	}

	got, err := svc.ListView(ctx, scope, store.TaskFilter{},
		taskview.State{Perspective: taskview.PerspectiveMyAssigned})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("view = %+v, want just the actor's task", got)
	}
}

func TestGetEnforcesTenant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})
	other := service.Scope{TenantID: "tn2", UserID: "U9"}
	if _, err := svc.Get(ctx, other, task.ID); err == nil {
		t.Fatal("cross-tenant read accepted")
	}
}

func TestSoftDeleteHidesTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})
	if err := svc.SoftDelete(ctx, scope, task.ID); err != nil {
		t.Fatalf("deleting: %v", err)
	}

	got, err := svc.ListView(ctx, scope, store.TaskFilter{}, taskview.State{})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("view after delete = %+v, want empty", got)
	}
}

func TestAssigneeLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	if err := st.UpsertMember(ctx, model.Member{
		UserID: "U2", TenantID: "tn1", DisplayName: "Ben", Active: true,
	}); err != nil {
		t.Fatalf("seeding roster: %v", err)
	}

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})

	list, err := svc.AddAssignee(ctx, scope, task.ID, "U2")
	if err != nil {
		t.Fatalf("adding assignee: %v", err)
	}
	if len(list) != 1 || list[0].UserID != "U2" {
		t.Fatalf("assignees = %+v, want U2", list)
	}

	if _, err := svc.AddAssignee(ctx, scope, task.ID, "U9"); err == nil {
		t.Error("non-roster assignee accepted")
	}

	if err := svc.RemoveAssignee(ctx, scope, task.ID, list[0].ID); err != nil {
		t.Fatalf("removing assignee: %v", err)
	}
	got, _ := svc.Get(ctx, scope, task.ID)
	if len(got.Assignees) != 0 {
		t.Errorf("assignees after remove = %+v", got.Assignees)
	}
}

// Assignees submitted with an unsaved task are held locally and
// flushed to rows once the task has an id.
func TestCreateWithAssignees(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for _, m := range []model.Member{
		{UserID: "U2", TenantID: "tn1", DisplayName: "Ben", Active: true},
		{UserID: "U3", TenantID: "tn1", DisplayName: "Cal", Active: true},
	} {
		if err := st.UpsertMember(ctx, m); err != nil {
			t.Fatalf("seeding roster: %v", err)
		}
	}

	task, err := svc.Create(ctx, scope, model.Task{
		Title:     "Demo",
		Assignees: []model.Assignee{{UserID: "U2"}, {UserID: "U3"}},
	})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if len(task.Assignees) != 2 {
		t.Fatalf("returned assignees = %+v, want 2", task.Assignees)
	}
	for _, a := range task.Assignees {
		if a.IsPending() || a.TaskID != task.ID {
			t.Errorf("assignee not flushed: %+v", a)
		}
	}

	got, err := svc.Get(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if len(got.Assignees) != 2 {
		t.Errorf("persisted assignees = %+v, want 2", got.Assignees)
	}
}

func TestCreateWithAssigneesRejectsNonRoster(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, scope, model.Task{
		Title:     "Demo",
		Assignees: []model.Assignee{{UserID: "U9"}},
	})
	if err == nil {
		t.Fatal("non-roster assignee accepted at create")
	}
}

func TestAssigneeCandidates(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for _, m := range []model.Member{
		{UserID: "U1", TenantID: "tn1", DisplayName: "Ana", Active: true},
		{UserID: "U2", TenantID: "tn1", DisplayName: "Ben", Active: true},
		{UserID: "U3", TenantID: "tn1", DisplayName: "Cal", Active: true},
		{UserID: "U4", TenantID: "tn1", DisplayName: "Dea", Active: false},
	} {
		if err := st.UpsertMember(ctx, m); err != nil {
			t.Fatalf("seeding roster: %v", err)
		}
	}

	// U1 is the primary assignee, U2 an additional assignee.
	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo"})
	if _, err := svc.AddAssignee(ctx, scope, task.ID, "U2"); err != nil {
		t.Fatalf("adding assignee: %v", err)
	}

	got, err := svc.AssigneeCandidates(ctx, scope, task.ID)
	if err != nil {
		t.Fatalf("listing candidates: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "U3" {
		t.Errorf("candidates = %+v, want just U3", got)
	}
}

func TestEditTimingSettles(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	task, _ := svc.Create(ctx, scope, model.Task{Title: "Demo", DueDate: "2025-03-14"})

	fields := schedule.TimeFields{
		DueDate:     "2025-03-14",
		DueTime:     "10:00",
		Duration:    30,
		DurationSet: true,
	}
	svc.EditTiming(scope, task.ID, fields, schedule.FieldDueTime)
	svc.FlushTiming(task.ID)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := svc.Get(ctx, scope, task.ID)
		if err != nil {
			t.Fatalf("getting: %v", err)
		}
		if got.StartTime == "09:30" && got.DueTime == "10:00" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("derived start never landed: %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
