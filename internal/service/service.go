// Package service implements the to-do business operations on top of
// the store and the derivation engines.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsboard/opsboard/internal/calendar"
	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
	"github.com/opsboard/opsboard/internal/store"
	"github.com/opsboard/opsboard/internal/subtask"
	"github.com/opsboard/opsboard/internal/taskview"
)

// Scope identifies the tenant and acting user of a request. The caller
// is trusted to have authenticated both; enforcement is delegated.
type Scope struct {
	TenantID string
	UserID   string
}

// TodoService wires the store and the derivation engines into the
// operations the API exposes.
type TodoService struct {
	store   store.Store
	deriver *schedule.Deriver
	cal     config.CalendarConfig
	logger  *slog.Logger

	timing *timingSessions
}

// New creates a TodoService.
func New(st store.Store, deriver *schedule.Deriver, cal config.CalendarConfig, logger *slog.Logger) *TodoService {
	s := &TodoService{
		store:   st,
		deriver: deriver,
		cal:     cal,
		logger:  logger,
	}
	s.timing = newTimingSessions(s)
	return s
}

// Create persists a new task. An unassigned task defaults to the acting
// user, audit fields are stamped, and timing fields are derived once
// when enough of them are present. Assignees submitted with the task
// are collected against the unsaved task and flushed once it has an id.
func (s *TodoService) Create(ctx context.Context, scope Scope, task model.Task) (*model.Task, error) {
	task.TenantID = scope.TenantID
	task.CreatedBy = scope.UserID
	if task.AssignedTo == "" {
		task.AssignedTo = scope.UserID
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

	mgr := newAssigneeManager(s.store, "", nil)
	for _, a := range task.Assignees {
		member, err := s.rosterMember(ctx, scope, a.UserID)
		if err != nil {
			return nil, err
		}
		if err := mgr.Add(ctx, *member); err != nil {
			return nil, err
		}
	}
	task.Assignees = nil

	s.deriveInitial(&task)

	if err := s.store.CreateTask(ctx, &task); err != nil {
		return nil, err
	}

	if err := mgr.Commit(ctx, task.ID); err != nil {
		return nil, err
	}
	task.Assignees = mgr.Assignees()

	s.recordActivity(ctx, &model.ActivityEntry{
		TaskID:  task.ID,
		Action:  model.ActivityCreated,
		ActorID: scope.UserID,
	})

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("tenant_id", scope.TenantID))
	return &task, nil
}

// Update overwrites a task with the submitted field set. When the edit
// touched a timing field, the dependent field is recomputed before the
// save; the field the user edited is never rewritten. Subtask edits
// roll their aggregate back up into the parent.
func (s *TodoService) Update(ctx context.Context, scope Scope, task model.Task, lastEdited schedule.Field) (*model.Task, error) {
	existing, err := s.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	task.TenantID = existing.TenantID
	task.CreatedBy = existing.CreatedBy
	task.CreatedAt = existing.CreatedAt

	// Completing through a full-row edit stamps the actor; the store
	// only manages the timestamp.
	if task.Status == model.StatusCompleted && task.CompletedBy == "" {
		task.CompletedBy = scope.UserID
	}

	if lastEdited != schedule.FieldNone {
		fields, _, ok := s.deriver.Derive(timeFieldsOf(&task), lastEdited)
		if ok {
			applyTimeFields(&task, fields)
		}
	}

	if err := s.store.UpdateTask(ctx, &task); err != nil {
		return nil, err
	}

	s.recordFieldChanges(ctx, scope, existing, &task)

	if task.ParentTodoID != "" {
		if err := s.syncParentRollup(ctx, task.ParentTodoID); err != nil {
			s.logger.Error("syncing parent rollup",
				slog.String("parent_id", task.ParentTodoID),
				slog.String("error", err.Error()))
		}
	}

	return &task, nil
}

// Complete marks a task completed, stamping the actor.
func (s *TodoService) Complete(ctx context.Context, scope Scope, id string) error {
	if err := s.store.CompleteTask(ctx, id, scope.UserID); err != nil {
		return err
	}
	s.recordActivity(ctx, &model.ActivityEntry{
		TaskID:  id,
		Action:  model.ActivityCompleted,
		ActorID: scope.UserID,
	})
	return nil
}

// Reopen returns a completed task to pending and clears the completion
// stamp.
func (s *TodoService) Reopen(ctx context.Context, scope Scope, id string) error {
	if err := s.store.ReopenTask(ctx, id); err != nil {
		return err
	}
	s.recordActivity(ctx, &model.ActivityEntry{
		TaskID:  id,
		Action:  model.ActivityReopened,
		ActorID: scope.UserID,
	})
	return nil
}

// Postpone shifts the task's due date forward by days (at least one).
// A task without a due date is postponed relative to today.
func (s *TodoService) Postpone(ctx context.Context, scope Scope, id string, days int) (*model.Task, error) {
	if days <= 0 {
		days = 1
	}

	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	base := time.Now()
	if task.DueDate != "" {
		parsed, err := time.Parse(model.DateFormat, task.DueDate)
		if err != nil {
			return nil, fmt.Errorf("parsing due date of task %s: %w", id, err)
		}
		base = parsed
	}

	oldDate := task.DueDate
	task.DueDate = base.AddDate(0, 0, days).Format(model.DateFormat)

	// Times derived for the old day no longer hold on the new one.
	task.StartTime = ""
	task.DueTime = ""

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &model.ActivityEntry{
		TaskID:   id,
		Action:   model.ActivityPostponed,
		Field:    "due_date",
		OldValue: oldDate,
		NewValue: task.DueDate,
		ActorID:  scope.UserID,
	})
	return task, nil
}

// SoftDelete flags a task (and its subtasks) as deleted.
func (s *TodoService) SoftDelete(ctx context.Context, scope Scope, id string) error {
	return s.store.SoftDeleteTask(ctx, id, scope.UserID)
}

// CreateSubtask creates a child task under parentID and rolls the new
// aggregate up into the parent.
func (s *TodoService) CreateSubtask(ctx context.Context, scope Scope, parentID, title string) (*model.Task, error) {
	parent, err := s.store.GetTaskByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.TenantID != scope.TenantID {
		return nil, fmt.Errorf("task %s not found", parentID)
	}

	st := subtask.New(parent, title)
	st.CreatedBy = scope.UserID
	if err := s.store.CreateTask(ctx, &st); err != nil {
		return nil, err
	}

	if err := s.syncParentRollup(ctx, parentID); err != nil {
		s.logger.Error("syncing parent rollup",
			slog.String("parent_id", parentID),
			slog.String("error", err.Error()))
	}
	return &st, nil
}

// Subtasks lists the children of a task.
func (s *TodoService) Subtasks(ctx context.Context, scope Scope, parentID string) ([]model.Task, error) {
	return s.store.ListTasks(ctx, store.TaskFilter{
		TenantID: scope.TenantID,
		ParentID: &parentID,
		SortBy:   "created_at",
	})
}

// ListView fetches tasks for the filter, enriches display fields in
// batched queries, and applies the in-memory view state.
func (s *TodoService) ListView(ctx context.Context, scope Scope, filter store.TaskFilter, view taskview.State) ([]model.Task, error) {
	filter.TenantID = scope.TenantID
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.store.EnrichTasks(ctx, scope.TenantID, tasks); err != nil {
		return nil, err
	}
	return taskview.Apply(tasks, view, scope.UserID, time.Now()), nil
}

// Get retrieves one enriched task.
func (s *TodoService) Get(ctx context.Context, scope Scope, id string) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.TenantID != scope.TenantID {
		return nil, fmt.Errorf("task %s not found", id)
	}
	tasks := []model.Task{*task}
	if err := s.store.EnrichTasks(ctx, scope.TenantID, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// DaySchedule builds the day timeline of a user's tasks due on date.
func (s *TodoService) DaySchedule(ctx context.Context, scope Scope, userID, date, excludeTaskID string) (calendar.Day, error) {
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{
		TenantID:   scope.TenantID,
		AssignedTo: &userID,
		DueDate:    &date,
	})
	if err != nil {
		return calendar.Day{}, err
	}

	return calendar.BuildDay(tasks, date, calendar.Options{
		WindowStart:       s.cal.WindowStart,
		WindowEnd:         s.cal.WindowEnd,
		FallbackStart:     s.cal.FallbackStart,
		OverloadThreshold: s.cal.OverloadThreshold,
		ExcludeTaskID:     excludeTaskID,
	}), nil
}

// rosterMember resolves userID against the tenant's active roster.
func (s *TodoService) rosterMember(ctx context.Context, scope Scope, userID string) (*model.Member, error) {
	members, err := s.store.ListMembers(ctx, scope.TenantID, true)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].UserID == userID {
			return &members[i], nil
		}
	}
	return nil, fmt.Errorf("member %s not found in tenant roster", userID)
}

// AddAssignee assigns a roster member to a task.
func (s *TodoService) AddAssignee(ctx context.Context, scope Scope, taskID, userID string) ([]model.Assignee, error) {
	member, err := s.rosterMember(ctx, scope, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetAssigneesForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	mgr := newAssigneeManager(s.store, taskID, current)
	if err := mgr.Add(ctx, *member); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, &model.ActivityEntry{
		TaskID:   taskID,
		Action:   model.ActivityAssigneeAdd,
		NewValue: userID,
		ActorID:  scope.UserID,
	})
	return mgr.Assignees(), nil
}

// RemoveAssignee removes an assignee join row from a task.
func (s *TodoService) RemoveAssignee(ctx context.Context, scope Scope, taskID, assigneeID string) error {
	current, err := s.store.GetAssigneesForTask(ctx, taskID)
	if err != nil {
		return err
	}

	mgr := newAssigneeManager(s.store, taskID, current)
	for _, a := range current {
		if a.ID == assigneeID {
			if err := mgr.Remove(ctx, a); err != nil {
				return err
			}
			s.recordActivity(ctx, &model.ActivityEntry{
				TaskID:   taskID,
				Action:   model.ActivityAssigneeDrop,
				OldValue: a.UserID,
				ActorID:  scope.UserID,
			})
			return nil
		}
	}
	return fmt.Errorf("assignee %s not found", assigneeID)
}

// AssigneeCandidates returns the active roster members that could still
// be assigned to the task: not the primary assignee, not already in the
// assignee list.
func (s *TodoService) AssigneeCandidates(ctx context.Context, scope Scope, taskID string) ([]model.Member, error) {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.TenantID != scope.TenantID {
		return nil, fmt.Errorf("task %s not found", taskID)
	}

	current, err := s.store.GetAssigneesForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListMembers(ctx, scope.TenantID, true)
	if err != nil {
		return nil, err
	}

	mgr := newAssigneeManager(s.store, taskID, current)
	var out []model.Member
	for _, m := range mgr.Candidates(roster) {
		if m.UserID == task.AssignedTo {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Activity returns a task's audit history.
func (s *TodoService) Activity(ctx context.Context, scope Scope, taskID string) ([]model.ActivityEntry, error) {
	return s.store.GetActivityForTask(ctx, taskID)
}

// Members returns the tenant's active roster.
func (s *TodoService) Members(ctx context.Context, scope Scope) ([]model.Member, error) {
	return s.store.ListMembers(ctx, scope.TenantID, true)
}

// UpsertMember creates or refreshes a roster entry from the upstream
// directory.
func (s *TodoService) UpsertMember(ctx context.Context, scope Scope, m model.Member) error {
	m.TenantID = scope.TenantID
	return s.store.UpsertMember(ctx, m)
}

// UpsertEntityRef records the display name of an external business
// object so list enrichment can resolve it without upstream lookups.
func (s *TodoService) UpsertEntityRef(ctx context.Context, scope Scope, ref model.EntityRef) error {
	ref.TenantID = scope.TenantID
	return s.store.UpsertEntityRef(ctx, ref)
}

// TaskTypes returns the tenant's category labels.
func (s *TodoService) TaskTypes(ctx context.Context, scope Scope) ([]model.TaskType, error) {
	return s.store.ListTaskTypes(ctx, scope.TenantID)
}

// CreateTaskType adds a category label for the tenant.
func (s *TodoService) CreateTaskType(ctx context.Context, scope Scope, label, color string) (*model.TaskType, error) {
	tt := &model.TaskType{TenantID: scope.TenantID, Label: label, Color: color}
	if err := s.store.CreateTaskType(ctx, tt); err != nil {
		return nil, err
	}
	return tt, nil
}

// DeleteTaskType removes a category label. Tasks keep their type_id;
// enrichment simply stops resolving a label for it.
func (s *TodoService) DeleteTaskType(ctx context.Context, scope Scope, id string) error {
	return s.store.DeleteTaskType(ctx, id)
}

// syncParentRollup recomputes a parent's aggregate from its current
// subtasks and persists the parent when the aggregate moved it.
func (s *TodoService) syncParentRollup(ctx context.Context, parentID string) error {
	parent, err := s.store.GetTaskByID(ctx, parentID)
	if err != nil {
		return err
	}

	subs, err := s.store.ListTasks(ctx, store.TaskFilter{
		TenantID: parent.TenantID,
		ParentID: &parentID,
	})
	if err != nil {
		return err
	}

	rollup := subtask.Aggregate(subs)
	if !subtask.ApplyToParent(parent, rollup) {
		return nil
	}
	return s.store.UpdateTask(ctx, parent)
}

// deriveInitial runs one derivation pass on a fresh task, inferring the
// last-edited field from what the caller supplied.
func (s *TodoService) deriveInitial(task *model.Task) {
	if task.DueDate == "" {
		return
	}
	last := schedule.FieldNone
	switch {
	case task.StartTime != "":
		last = schedule.FieldStartTime
	case task.DueTime != "":
		last = schedule.FieldDueTime
	}
	if last == schedule.FieldNone {
		return
	}
	fields, _, ok := s.deriver.Derive(timeFieldsOf(task), last)
	if ok {
		applyTimeFields(task, fields)
	}
}

// recordFieldChanges writes audit entries for fields that moved.
func (s *TodoService) recordFieldChanges(ctx context.Context, scope Scope, before, after *model.Task) {
	changes := [][3]string{
		{"title", before.Title, after.Title},
		{"status", before.Status, after.Status},
		{"priority", before.Priority, after.Priority},
		{"due_date", before.DueDate, after.DueDate},
		{"start_time", before.StartTime, after.StartTime},
		{"due_time", before.DueTime, after.DueTime},
		{"assigned_to", before.AssignedTo, after.AssignedTo},
	}
	for _, c := range changes {
		if c[1] == c[2] {
			continue
		}
		s.recordActivity(ctx, &model.ActivityEntry{
			TaskID:   after.ID,
			Action:   model.ActivityUpdated,
			Field:    c[0],
			OldValue: c[1],
			NewValue: c[2],
			ActorID:  scope.UserID,
		})
	}
}

// recordActivity appends an audit entry; failures are logged, never
// surfaced, so audit writes cannot fail a user action.
func (s *TodoService) recordActivity(ctx context.Context, e *model.ActivityEntry) {
	if err := s.store.RecordActivity(ctx, e); err != nil {
		s.logger.Error("recording activity",
			slog.String("task_id", e.TaskID),
			slog.String("action", e.Action),
			slog.String("error", err.Error()))
	}
}

func timeFieldsOf(t *model.Task) schedule.TimeFields {
	return schedule.TimeFields{
		DueDate:     t.DueDate,
		StartTime:   t.StartTime,
		DueTime:     t.DueTime,
		Duration:    t.Duration,
		DurationSet: t.Duration != model.DefaultDuration,
	}
}

func applyTimeFields(t *model.Task, f schedule.TimeFields) {
	t.StartTime = f.StartTime
	t.DueTime = f.DueTime
	t.Duration = f.Duration
}
