package schedule

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long the debouncer waits after the last
// edit before running a derivation.
const DefaultSettleDelay = 100 * time.Millisecond

// Debouncer coalesces rapid edits to a task's timing fields into a
// single derivation. It keeps one pending timer that is reset on every
// edit; only the final edit of a burst drives the recomputation.
type Debouncer struct {
	deriver *Deriver
	delay   time.Duration
	apply   func(TimeFields, Field)

	mu     sync.Mutex
	timer  *time.Timer
	fields TimeFields
	last   Field
}

// NewDebouncer creates a debouncer that runs deriver after delay and
// hands the settled result to apply. apply runs on every settle, with
// FieldNone when the derivation changed nothing, so callers can tear
// down per-burst state regardless of outcome. A zero delay uses the
// default.
func NewDebouncer(deriver *Deriver, delay time.Duration, apply func(TimeFields, Field)) *Debouncer {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Debouncer{deriver: deriver, delay: delay, apply: apply}
}

// Edit records the latest field state and which field the user touched,
// resetting the settle timer.
func (b *Debouncer) Edit(f TimeFields, last Field) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fields = f
	b.last = last

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.fire)
}

// Flush runs any pending derivation immediately.
func (b *Debouncer) Flush() {
	b.mu.Lock()
	if b.timer == nil {
		b.mu.Unlock()
		return
	}
	b.timer.Stop()
	b.mu.Unlock()
	b.fire()
}

// Stop cancels any pending derivation without running it.
func (b *Debouncer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// fire runs one derivation for the settled edit.
func (b *Debouncer) fire() {
	b.mu.Lock()
	if b.timer == nil {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	fields, last := b.fields, b.last
	b.mu.Unlock()

	updated, changed, ok := b.deriver.Derive(fields, last)
	if !ok {
		updated, changed = fields, FieldNone
	}
	if b.apply != nil {
		b.apply(updated, changed)
	}
}
