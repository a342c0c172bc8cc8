package schedule

import "github.com/opsboard/opsboard/internal/config"

// WorkingHours is a same-day business-hours policy. Candidate start
// instants outside the window are pulled to the nearest valid start
// that still fits the task's duration before the day ends.
type WorkingHours struct {
	dayStart int
	dayEnd   int
}

// NewWorkingHours builds a policy from configuration. It returns nil
// when the policy is disabled or the configured window is invalid, in
// which case callers fall back to naive arithmetic.
func NewWorkingHours(cfg config.WorkingHoursConfig) *WorkingHours {
	if !cfg.Enabled {
		return nil
	}
	start, okStart := ParseClock(cfg.DayStart)
	end, okEnd := ParseClock(cfg.DayEnd)
	if !okStart || !okEnd || end <= start {
		return nil
	}
	return &WorkingHours{dayStart: start, dayEnd: end}
}

// AdjustStart maps a candidate start into the working window. The date
// is part of the collaborator contract; this policy applies the same
// window to every day.
func (w *WorkingHours) AdjustStart(date string, start, duration int) int {
	_ = date

	latest := w.dayEnd - duration
	if latest < w.dayStart {
		latest = w.dayStart
	}
	if start < w.dayStart {
		return w.dayStart
	}
	if start > latest {
		return latest
	}
	return start
}

// Adjuster returns the policy as a StartAdjuster, or nil when the
// policy itself is nil.
func (w *WorkingHours) Adjuster() StartAdjuster {
	if w == nil {
		return nil
	}
	return w.AdjustStart
}
