package schedule

import (
	"sync"
	"time"
)

// Clock abstracts timer scheduling so debounce behavior is testable without
// wall-clock sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the runtime timers.
func RealClock() Clock { return realClock{} }

// DefaultDebounce is the coalescing window for filter recomputation.
const DefaultDebounce = 100 * time.Millisecond

// Debouncer coalesces a burst of triggers into a single run of the latest
// function after a quiet window. A newer trigger cancels the pending one;
// superseded runs never execute.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	timer Timer
}

// NewDebouncer creates a debouncer with the given quiet window. A zero
// delay falls back to DefaultDebounce; a nil clock uses the real one.
func NewDebouncer(delay time.Duration, clock Clock) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger schedules fn to run after the quiet window, cancelling any
// previously pending run.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, fn)
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
