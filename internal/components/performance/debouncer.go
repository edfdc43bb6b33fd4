package performance

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Debouncer runs a callback once calls to Trigger have stopped for delay.
// It is safe for concurrent use. The callback runs on the timer goroutine.
type Debouncer struct {
	delay    time.Duration
	clock    clock.WithDelayedExecution
	timer    clock.Timer
	callback func()
	mutex    sync.Mutex
	pending  bool
	gen      uint64
}

// NewDebouncer creates a new debouncer with the specified delay
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return NewDebouncerWithClock(clock.RealClock{}, delay, callback)
}

// NewDebouncerWithClock creates a debouncer driven by c
func NewDebouncerWithClock(c clock.WithDelayedExecution, delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		clock:    c,
		callback: callback,
	}
}

// Trigger (re)starts the quiet period
func (d *Debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = true
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mutex.Lock()
		if !d.pending || gen != d.gen {
			d.mutex.Unlock()
			return
		}
		d.pending = false
		d.timer = nil
		callback := d.callback
		d.mutex.Unlock()

		callback()
	})
}

// Cancel cancels any pending debounced call
func (d *Debouncer) Cancel() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// IsPending returns whether a call is pending
func (d *Debouncer) IsPending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pending
}

// SetDelay updates the debounce delay for later triggers
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.delay = delay
}
