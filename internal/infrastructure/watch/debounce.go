// Package watch re-submits a PRD file for review whenever it changes on disk.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of values and delivers only the last one after
// the window passes with no further triggers.
type Debouncer[T any] struct {
	window time.Duration
	fire   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	latest  T
	stopped bool
}

// NewDebouncer creates a debouncer with the given window.
func NewDebouncer[T any](window time.Duration, fire func(T)) *Debouncer[T] {
	return &Debouncer[T]{window: window, fire: fire}
}

// Trigger records v and restarts the window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.latest = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.deliver)
}

func (d *Debouncer[T]) deliver() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.timer = nil
	d.mu.Unlock()

	d.fire(v)
}

// Stop cancels any pending delivery. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
