package debounce

import (
	"sync"
	"time"
)

// DefaultWait is the quiet period applied to search input
const DefaultWait = 300 * time.Millisecond

// Debouncer delivers the last value passed to Trigger once no new value
// has arrived for the wait period.
type Debouncer[T any] struct {
	mu      sync.Mutex
	wait    time.Duration
	fire    func(T)
	timer   *time.Timer
	pending T
	seq     uint64
	stopped bool
}

// New creates a debouncer calling fire with the settled value
func New[T any](wait time.Duration, fire func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Debouncer[T]{wait: wait, fire: fire}
}

// Trigger records value and restarts the quiet period
func (d *Debouncer[T]) Trigger(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = value
	d.timer = time.AfterFunc(d.wait, func() { d.settle(seq) })
}

// Flush fires a pending value now instead of waiting
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.mu.Unlock()
	d.settle(seq)
}

// settle fires the pending value if seq is still the latest trigger.
// A timer that lost the race with Stop or a newer Trigger is stale.
func (d *Debouncer[T]) settle(seq uint64) {
	d.mu.Lock()
	if d.stopped || d.timer == nil || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	value := d.pending
	d.mu.Unlock()
	d.fire(value)
}

// Pending reports whether a value is waiting to fire
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending value. Later triggers are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
