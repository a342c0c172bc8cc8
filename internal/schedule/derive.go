package schedule

import "github.com/opsboard/opsboard/internal/model"

// Field identifies one of the three derivable timing fields.
type Field int

const (
	FieldNone Field = iota
	FieldStartTime
	FieldDueTime
	FieldDuration
)

// String returns the field's column name.
func (f Field) String() string {
	switch f {
	case FieldStartTime:
		return "start_time"
	case FieldDueTime:
		return "due_time"
	case FieldDuration:
		return "duration"
	default:
		return "none"
	}
}

// TimeFields is the timing slice of a task handed to the deriver.
// DurationSet distinguishes an explicitly chosen duration from the
// default that new tasks carry.
type TimeFields struct {
	DueDate     string
	StartTime   string
	DueTime     string
	Duration    int
	DurationSet bool
}

// StartAdjuster maps a candidate start (minutes since midnight) for a
// task of the given duration on the given date into a valid instant.
// It stands in for the external working-hours collaborator; a nil
// adjuster means naive arithmetic.
type StartAdjuster func(date string, start, duration int) int

// Deriver recomputes at most one timing field per edit. It never
// rewrites the field that was just edited, and it reports no change
// when the computed value already matches the current one, so chained
// invocations settle instead of looping.
type Deriver struct {
	Adjust StartAdjuster
}

// Derive applies the derivation rules for the given last-edited field
// and returns the updated fields, which field changed, and whether
// anything changed at all. Without a due date no derivation occurs.
func (d *Deriver) Derive(f TimeFields, last Field) (TimeFields, Field, bool) {
	if f.DueDate == "" {
		return f, FieldNone, false
	}

	start, hasStart := ParseClock(f.StartTime)
	due, hasDue := ParseClock(f.DueTime)

	switch last {
	case FieldDuration:
		if f.Duration <= 0 {
			return f, FieldNone, false
		}
		if hasDue {
			return d.setStart(f, due-f.Duration)
		}
		if hasStart {
			return setDue(f, start+f.Duration)
		}

	case FieldDueTime:
		if !hasDue {
			return f, FieldNone, false
		}
		if hasStart && !f.DurationSet {
			return setDuration(f, due-start)
		}
		if f.Duration > 0 {
			return d.setStart(f, due-f.Duration)
		}

	case FieldStartTime:
		if !hasStart {
			return f, FieldNone, false
		}
		if hasDue && !f.DurationSet {
			return setDuration(f, due-start)
		}
		if f.Duration > 0 {
			return setDue(f, start+f.Duration)
		}
	}

	return f, FieldNone, false
}

// setStart applies a candidate start minute, running it through the
// working-hours adjuster when one is configured.
func (d *Deriver) setStart(f TimeFields, candidate int) (TimeFields, Field, bool) {
	if d.Adjust != nil {
		candidate = d.Adjust(f.DueDate, candidate, f.Duration)
	}
	s := FormatClock(clampDay(candidate))
	if s == f.StartTime {
		return f, FieldNone, false
	}
	f.StartTime = s
	return f, FieldStartTime, true
}

func setDue(f TimeFields, candidate int) (TimeFields, Field, bool) {
	s := FormatClock(clampDay(candidate))
	if s == f.DueTime {
		return f, FieldNone, false
	}
	f.DueTime = s
	return f, FieldDueTime, true
}

// setDuration floors spans at the 5-minute minimum, so zero and
// negative spans clamp silently instead of erroring.
func setDuration(f TimeFields, span int) (TimeFields, Field, bool) {
	if span < model.MinDuration {
		span = model.MinDuration
	}
	if span == f.Duration {
		return f, FieldNone, false
	}
	f.Duration = span
	f.DurationSet = true
	return f, FieldDuration, true
}
