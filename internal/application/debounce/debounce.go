package debounce

import (
	"sync"
	"time"
)

// DefaultWait is the delay applied to filter input before re-rendering.
const DefaultWait = 250 * time.Millisecond

// Debouncer delays calls to fn until input has been quiet for the wait period.
// Each Trigger cancels the pending call and restarts the timer; only the last value is delivered.
type Debouncer[T any] struct {
	mu    sync.Mutex
	wait  time.Duration
	fn    func(T)
	timer *time.Timer
	seq   uint64
}

// New creates a Debouncer. A non-positive wait uses DefaultWait.
func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger schedules fn(v) after the wait period, cancelling any pending call.
// PRE: none
// POST: at most one pending call exists, carrying v
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		// A timer that fired while Trigger was replacing it must not deliver.
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fn(v)
	})
}

// Stop cancels any pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// pending reports whether a call is scheduled.
func (d *Debouncer[T]) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
