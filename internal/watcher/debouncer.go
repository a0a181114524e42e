package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceWindow coalesces editor save bursts into one reindex.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback invocation fired
// after a quiet window. Trigger is safe to call from multiple goroutines.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	fn     func()
	closed bool
}

// NewDebouncer creates a debouncer that invokes fn once per quiet window.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules (or reschedules) the callback.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Stop cancels any pending callback. The debouncer cannot be reused.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
