package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/opsboard/opsboard/internal/assign"
	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
)

// newAssigneeManager adapts the store to the assign package.
func newAssigneeManager(st assign.AssigneeStore, taskID string, current []model.Assignee) *assign.Manager {
	return assign.NewManager(st, taskID, current)
}

// timingSessions holds one debouncer per task currently being edited,
// so bursts of timing keystrokes settle into a single derivation and
// save. A session is dropped after its debounced write lands.
type timingSessions struct {
	svc *TodoService

	mu       sync.Mutex
	sessions map[string]*schedule.Debouncer
	delay    time.Duration
}

func newTimingSessions(svc *TodoService) *timingSessions {
	return &timingSessions{
		svc:      svc,
		sessions: make(map[string]*schedule.Debouncer),
		delay:    schedule.DefaultSettleDelay,
	}
}

// EditTiming records a timing-field edit for the task. The derivation
// and the resulting save run after the edit burst settles; the reply to
// the caller does not wait for them.
func (s *TodoService) EditTiming(scope Scope, taskID string, fields schedule.TimeFields, lastEdited schedule.Field) {
	s.timing.edit(scope, taskID, fields, lastEdited)
}

// FlushTiming forces any pending timing derivation for the task to run
// now. Used on detail-view close and in tests.
func (s *TodoService) FlushTiming(taskID string) {
	s.timing.flush(taskID)
}

func (t *timingSessions) edit(scope Scope, taskID string, fields schedule.TimeFields, last schedule.Field) {
	t.mu.Lock()
	deb, ok := t.sessions[taskID]
	if !ok {
		deb = schedule.NewDebouncer(t.svc.deriver, t.delay, t.applyFunc(scope, taskID))
		t.sessions[taskID] = deb
	}
	t.mu.Unlock()

	deb.Edit(fields, last)
}

func (t *timingSessions) flush(taskID string) {
	t.mu.Lock()
	deb, ok := t.sessions[taskID]
	t.mu.Unlock()
	if ok {
		deb.Flush()
	}
}

// applyFunc persists the derived timing fields for one settled edit.
// The write runs off the request path, so it carries its own context.
// The session is dropped first, under the registration lock, so no-op
// and failed settles cannot strand a debouncer in the map.
func (t *timingSessions) applyFunc(scope Scope, taskID string) func(schedule.TimeFields, schedule.Field) {
	return func(fields schedule.TimeFields, changed schedule.Field) {
		t.mu.Lock()
		delete(t.sessions, taskID)
		t.mu.Unlock()

		if changed == schedule.FieldNone {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		task, err := t.svc.store.GetTaskByID(ctx, taskID)
		if err != nil {
			t.svc.logger.Error("loading task for timing update",
				slog.String("task_id", taskID),
				slog.String("error", err.Error()))
			return
		}

		task.DueDate = fields.DueDate
		applyTimeFields(task, fields)

		if err := t.svc.store.UpdateTask(ctx, task); err != nil {
			t.svc.logger.Error("saving derived timing",
				slog.String("task_id", taskID),
				slog.String("error", err.Error()))
			return
		}

		t.svc.recordActivity(ctx, &model.ActivityEntry{
			TaskID:   taskID,
			Action:   model.ActivityUpdated,
			Field:    changed.String(),
			ActorID:  scope.UserID,
			NewValue: timingValue(fields, changed),
		})
	}
}

func timingValue(f schedule.TimeFields, field schedule.Field) string {
	switch field {
	case schedule.FieldStartTime:
		return f.StartTime
	case schedule.FieldDueTime:
		return f.DueTime
	case schedule.FieldDuration:
		return strconv.Itoa(f.Duration)
	default:
		return ""
	}
}
