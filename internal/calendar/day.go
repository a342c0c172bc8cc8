// Package calendar builds day-timeline views of a user's scheduled
// tasks and flags overloaded days.
package calendar

import (
	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
)

// Options controls the day-timeline window and the overload advisory.
type Options struct {
	WindowStart       string // "HH:MM", default 06:00
	WindowEnd         string // "HH:MM", default 22:00
	FallbackStart     string // used when a task has no start time
	OverloadThreshold int    // advisory only, default 3
	ExcludeTaskID     string // the task currently being edited, if any
}

// Block is one task positioned on the timeline. StartMinute and
// EndMinute are minutes since midnight, clamped into the window.
type Block struct {
	Task        model.Task `json:"task"`
	StartMinute int        `json:"start_minute"`
	EndMinute   int        `json:"end_minute"`
	Clamped     bool       `json:"clamped"`
}

// Day is the rendered timeline for one user and date.
type Day struct {
	Date        string  `json:"date"`
	WindowStart int     `json:"window_start"`
	WindowEnd   int     `json:"window_end"`
	Blocks      []Block `json:"blocks"`
	Overloaded  bool    `json:"overloaded"`
}

func (o Options) withDefaults() (winStart, winEnd, fallback, threshold int) {
	winStart = clock(o.WindowStart, 6*60)
	winEnd = clock(o.WindowEnd, 22*60)
	fallback = clock(o.FallbackStart, 9*60)
	threshold = o.OverloadThreshold
	if threshold <= 0 {
		threshold = 3
	}
	return
}

func clock(s string, def int) int {
	if min, ok := schedule.ParseClock(s); ok {
		return min
	}
	return def
}

// BuildDay lays tasks due on date out on the window timeline. The
// caller supplies rows already scoped to one user and date; completed
// tasks and the excluded task are dropped here. Exceeding the threshold
// only sets the advisory flag, nothing is blocked.
func BuildDay(tasks []model.Task, date string, opts Options) Day {
	winStart, winEnd, fallback, threshold := opts.withDefaults()

	day := Day{
		Date:        date,
		WindowStart: winStart,
		WindowEnd:   winEnd,
	}

	for _, t := range tasks {
		if t.IsCompleted() || t.ID == opts.ExcludeTaskID {
			continue
		}

		start, ok := schedule.ParseClock(t.StartTime)
		if !ok {
			start = fallback
		}
		duration := t.Duration
		if duration <= 0 {
			duration = model.DefaultDuration
		}
		end := start + duration

		b := Block{Task: t, StartMinute: start, EndMinute: end}
		if start < winStart {
			b.StartMinute = winStart
			b.Clamped = true
		}
		if end > winEnd {
			b.EndMinute = winEnd
			b.Clamped = true
		}
		if b.EndMinute < b.StartMinute {
			b.EndMinute = b.StartMinute
		}
		day.Blocks = append(day.Blocks, b)
	}

	day.Overloaded = len(day.Blocks) > threshold
	return day
}
