package calendar

import (
	"testing"

	"github.com/opsboard/opsboard/internal/model"
)

func scheduled(id, start string, duration int) model.Task {
	return model.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    model.StatusPending,
		StartTime: start,
		Duration:  duration,
	}
}

func TestBuildDayPlacesBlocks(t *testing.T) {
	tasks := []model.Task{
		scheduled("t1", "09:00", 30),
		scheduled("t2", "14:15", 45),
	}

	day := BuildDay(tasks, "2025-03-10", Options{})
	if day.Date != "2025-03-10" {
		t.Errorf("Date = %q", day.Date)
	}
	if day.WindowStart != 6*60 || day.WindowEnd != 22*60 {
		t.Errorf("window = [%d, %d], want defaults", day.WindowStart, day.WindowEnd)
	}
	if len(day.Blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(day.Blocks))
	}
	if b := day.Blocks[0]; b.StartMinute != 540 || b.EndMinute != 570 || b.Clamped {
		t.Errorf("block 0 = %+v", b)
	}
	if b := day.Blocks[1]; b.StartMinute != 855 || b.EndMinute != 900 {
		t.Errorf("block 1 = %+v", b)
	}
}

func TestBuildDayFallbackStart(t *testing.T) {
	day := BuildDay([]model.Task{scheduled("t1", "", 20)}, "2025-03-10", Options{})
	if len(day.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(day.Blocks))
	}
	if b := day.Blocks[0]; b.StartMinute != 9*60 || b.EndMinute != 9*60+20 {
		t.Errorf("block = %+v, want fallback 09:00 start", b)
	}
}

func TestBuildDayDefaultDuration(t *testing.T) {
	day := BuildDay([]model.Task{scheduled("t1", "10:00", 0)}, "2025-03-10", Options{})
	if b := day.Blocks[0]; b.EndMinute-b.StartMinute != model.DefaultDuration {
		t.Errorf("block span = %d, want %d", b.EndMinute-b.StartMinute, model.DefaultDuration)
	}
}

func TestBuildDayClampsIntoWindow(t *testing.T) {
	opts := Options{WindowStart: "08:00", WindowEnd: "18:00"}
	tasks := []model.Task{
		scheduled("early", "07:30", 60),
		scheduled("late", "17:45", 60),
	}

	day := BuildDay(tasks, "2025-03-10", opts)
	if b := day.Blocks[0]; b.StartMinute != 8*60 || b.EndMinute != 8*60+30 || !b.Clamped {
		t.Errorf("early block = %+v", b)
	}
	if b := day.Blocks[1]; b.StartMinute != 17*60+45 || b.EndMinute != 18*60 || !b.Clamped {
		t.Errorf("late block = %+v", b)
	}
}

func TestBuildDayBlockEntirelyOutsideWindow(t *testing.T) {
	opts := Options{WindowStart: "08:00", WindowEnd: "18:00"}
	day := BuildDay([]model.Task{scheduled("night", "20:00", 30)}, "2025-03-10", opts)
	if len(day.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(day.Blocks))
	}
	if b := day.Blocks[0]; b.EndMinute < b.StartMinute {
		t.Errorf("inverted block = %+v", b)
	}
}

func TestBuildDaySkipsCompletedAndExcluded(t *testing.T) {
	done := scheduled("done", "09:00", 30)
	done.Status = model.StatusCompleted
	tasks := []model.Task{
		done,
		scheduled("editing", "10:00", 30),
		scheduled("keep", "11:00", 30),
	}

	day := BuildDay(tasks, "2025-03-10", Options{ExcludeTaskID: "editing"})
	if len(day.Blocks) != 1 || day.Blocks[0].Task.ID != "keep" {
		t.Errorf("blocks = %+v, want just keep", day.Blocks)
	}
}

func TestBuildDayOverloadAdvisory(t *testing.T) {
	tasks := []model.Task{
		scheduled("t1", "09:00", 30),
		scheduled("t2", "10:00", 30),
		scheduled("t3", "11:00", 30),
	}

	day := BuildDay(tasks, "2025-03-10", Options{})
	if day.Overloaded {
		t.Error("3 blocks flagged overloaded at default threshold")
	}

	tasks = append(tasks, scheduled("t4", "12:00", 30))
	day = BuildDay(tasks, "2025-03-10", Options{})
	if !day.Overloaded {
		t.Error("4 blocks not flagged overloaded")
	}
	if len(day.Blocks) != 4 {
		t.Errorf("overload dropped blocks: %d", len(day.Blocks))
	}

	day = BuildDay(tasks, "2025-03-10", Options{OverloadThreshold: 10})
	if day.Overloaded {
		t.Error("overloaded under a raised threshold")
	}
}
