package catalog

import (
	"sync"
	"time"
)

const DefaultDebounce = 400 * time.Millisecond

// Debouncer calls fn with the latest value once no new value arrived for
// the interval.
type Debouncer[T any] struct {
	interval time.Duration
	fn       func(T)

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending *T
}

func NewDebouncer[T any](interval time.Duration, fn func(T)) *Debouncer[T] {
	if interval <= 0 {
		interval = DefaultDebounce
	}

	return &Debouncer[T]{interval: interval, fn: fn}
}

// Push replaces the pending value and restarts the interval.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = &v
	d.timer = time.AfterFunc(d.interval, func() {
		if v, ok := d.take(seq); ok {
			d.fn(v)
		}
	})
}

// Flush delivers the pending value now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	seq := d.seq
	d.mu.Unlock()

	if v, ok := d.take(seq); ok {
		d.fn(v)
	}
}

// take claims the pending value pushed as seq.
func (d *Debouncer[T]) take(seq uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.seq || d.pending == nil {
		var zero T
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := *d.pending
	d.pending = nil
	d.seq++

	return v, true
}

// Stop drops the pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	d.seq++
}
