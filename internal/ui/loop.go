package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDrainRounds bounds how many rounds of follow-up work one tasksReadyMsg
// runs before yielding to the renderer
const maxDrainRounds = 16

// tasksReadyMsg tells the update loop that posted work is waiting
type tasksReadyMsg struct{}

// taskLoop carries work posted from timer goroutines onto the bubbletea
// update loop, which owns all list state.
type taskLoop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func newTaskLoop() *taskLoop {
	return &taskLoop{wake: make(chan struct{}, 1)}
}

// Post queues fn. It is safe to call from any goroutine.
func (l *taskLoop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Wait returns a command that resolves once work has been posted
func (l *taskLoop) Wait() tea.Cmd {
	return func() tea.Msg {
		<-l.wake
		return tasksReadyMsg{}
	}
}

// Drain runs queued work, including work queued by that work, on the calling
// goroutine. It reports whether work is still left.
func (l *taskLoop) Drain() bool {
	for round := 0; round < maxDrainRounds; round++ {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return false
		}
		for _, fn := range batch {
			fn()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) > 0
}

// Len returns the number of queued functions
func (l *taskLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
