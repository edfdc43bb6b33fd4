package performance

import (
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

// Class is the coalescing policy of a scheduled update. Higher values have
// higher priority.
type Class int

const (
	// Debounced runs once the requests have been quiet for DebounceDelay
	Debounced Class = iota
	// Throttled runs at most once per ThrottleInterval while requests keep coming
	Throttled
	// Immediate runs on the next turn of the owner loop
	Immediate

	numClasses
)

func (c Class) String() string {
	switch c {
	case Debounced:
		return "debounced"
	case Throttled:
		return "throttled"
	case Immediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Reason tags a scheduled update for logging and tests.
type Reason string

// Default timings
const (
	DefaultThrottleInterval = 16 * time.Millisecond
	DefaultDebounceDelay    = 150 * time.Millisecond
)

// QueueOptions configures a TaskQueue.
type QueueOptions struct {
	// Clock drives throttling and debouncing. Defaults to the real clock.
	Clock clock.WithDelayedExecution
	// Post hands a function to the goroutine that owns the list state. Timer
	// callbacks never run work themselves; they only post.
	Post func(func())

	ThrottleInterval time.Duration
	DebounceDelay    time.Duration
}

type slot struct {
	pending bool
	armed   bool
	reason  Reason
	timer   clock.Timer
	gen     uint64
}

// TaskQueue coalesces update requests. However many requests arrive, each
// class runs run at most once per window with the latest reason, and run
// reads live state when it executes.
//
// Schedule and every posted function must be called from the owner goroutine.
type TaskQueue struct {
	clock    clock.WithDelayedExecution
	post     func(func())
	debounce time.Duration
	limiter  *rate.Limiter
	run      func(Reason)

	slots   [numClasses]slot
	stopped bool
}

// NewTaskQueue creates a queue that calls run for every coalesced update
func NewTaskQueue(opts QueueOptions, run func(Reason)) *TaskQueue {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = DefaultThrottleInterval
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	post := opts.Post
	if post == nil {
		post = func(fn func()) { fn() }
	}
	return &TaskQueue{
		clock:    opts.Clock,
		post:     post,
		debounce: opts.DebounceDelay,
		limiter:  rate.NewLimiter(rate.Every(opts.ThrottleInterval), 1),
		run:      run,
	}
}

// Schedule requests an update. Pending work in lower classes is dropped, and
// pending work in the same class is superseded by this reason.
func (q *TaskQueue) Schedule(class Class, reason Reason) {
	if q.stopped || class < 0 || class >= numClasses {
		return
	}
	for c := Debounced; c < class; c++ {
		q.cancel(c)
	}

	s := &q.slots[class]
	s.pending = true
	s.reason = reason

	switch class {
	case Immediate:
		if s.armed {
			return
		}
		s.armed = true
		q.postFire(class, s.gen)

	case Throttled:
		if s.armed {
			return
		}
		s.armed = true
		now := q.clock.Now()
		delay := q.limiter.ReserveN(now, 1).DelayFrom(now)
		if delay <= 0 {
			q.postFire(class, s.gen)
			return
		}
		gen := s.gen
		s.timer = q.clock.AfterFunc(delay, func() { q.postFire(class, gen) })

	case Debounced:
		if s.timer != nil {
			s.timer.Stop()
		}
		s.gen++
		s.armed = true
		gen := s.gen
		s.timer = q.clock.AfterFunc(q.debounce, func() { q.postFire(class, gen) })
	}
}

// Pending returns how many classes have an update waiting
func (q *TaskQueue) Pending() int {
	count := 0
	for i := range q.slots {
		if q.slots[i].pending {
			count++
		}
	}
	return count
}

// IsPending reports whether class has an update waiting
func (q *TaskQueue) IsPending(class Class) bool {
	if class < 0 || class >= numClasses {
		return false
	}
	return q.slots[class].pending
}

// Stop drops all pending work. Later calls to Schedule are ignored.
func (q *TaskQueue) Stop() {
	q.stopped = true
	for c := Debounced; c < numClasses; c++ {
		q.cancel(c)
	}
}

// Resume accepts requests again after Stop
func (q *TaskQueue) Resume() {
	q.stopped = false
}

// SetDebounceDelay changes the quiet period used by later Debounced requests
func (q *TaskQueue) SetDebounceDelay(d time.Duration) {
	if d > 0 {
		q.debounce = d
	}
}

// SetThrottleInterval changes the minimum spacing of Throttled runs
func (q *TaskQueue) SetThrottleInterval(d time.Duration) {
	if d > 0 {
		q.limiter.SetLimit(rate.Every(d))
	}
}

func (q *TaskQueue) postFire(class Class, gen uint64) {
	q.post(func() { q.fire(class, gen) })
}

func (q *TaskQueue) fire(class Class, gen uint64) {
	s := &q.slots[class]
	if q.stopped || gen != s.gen {
		return
	}
	s.armed = false
	s.timer = nil
	if !s.pending {
		return
	}
	s.pending = false
	q.run(s.reason)
}

func (q *TaskQueue) cancel(class Class) {
	s := &q.slots[class]
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.armed = false
	s.gen++
}
