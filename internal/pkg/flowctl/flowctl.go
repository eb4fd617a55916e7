// Package flowctl provides debounce and throttle primitives for coalescing
// bursts of events, e.g. change-feed notifications.
package flowctl

import (
	"sync"
	"time"
)

// Debouncer delays fn until calls have settled for the wait period. Each Call
// cancels the previously pending timer, so only the last fn of a burst runs.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Throttler runs fn at most once per interval. Calls landing inside the
// window are dropped, not queued.
type Throttler struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{interval: interval}
}

// Call runs fn when outside the throttle window and reports whether it ran.
func (t *Throttler) Call(fn func()) bool {
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.last) < t.interval {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.mu.Unlock()

	fn()
	return true
}
