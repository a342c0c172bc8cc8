package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
	"github.com/opsboard/opsboard/tests/testutil"
)

func newTimingService(t *testing.T) *TodoService {
	t.Helper()
	st := testutil.NewTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, &schedule.Deriver{}, config.CalendarConfig{}, logger)
}

func (s *TodoService) timingSessionCount() int {
	s.timing.mu.Lock()
	defer s.timing.mu.Unlock()
	return len(s.timing.sessions)
}

func waitForNoSessions(t *testing.T, svc *TodoService) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.timingSessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timing session still registered: %d", svc.timingSessionCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// A burst whose derivation changes nothing must still release its
// session, or every no-op edit leaks a debouncer.
func TestTimingSessionReleasedAfterNoOpSettle(t *testing.T) {
	svc := newTimingService(t)
	sc := Scope{TenantID: "tn1", UserID: "U1"}

	task, err := svc.Create(context.Background(), sc, model.Task{Title: "Demo"})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}

	// Already consistent: nothing to derive.
	svc.EditTiming(sc, task.ID, schedule.TimeFields{
		DueDate: "2025-03-14", StartTime: "09:00", DueTime: "09:30",
		Duration: 30, DurationSet: true,
	}, schedule.FieldStartTime)
	if svc.timingSessionCount() != 1 {
		t.Fatalf("sessions after edit = %d, want 1", svc.timingSessionCount())
	}
	svc.FlushTiming(task.ID)
	waitForNoSessions(t, svc)
}

// A settle whose write fails must also release the session.
func TestTimingSessionReleasedAfterFailedWrite(t *testing.T) {
	svc := newTimingService(t)
	sc := Scope{TenantID: "tn1", UserID: "U1"}

	// No such task: the debounced write cannot land.
	svc.EditTiming(sc, "missing", schedule.TimeFields{
		DueDate: "2025-03-14", DueTime: "10:00",
		Duration: 30, DurationSet: true,
	}, schedule.FieldDueTime)
	svc.FlushTiming("missing")
	waitForNoSessions(t, svc)
}
