// Package mapview is a headless host map view for cluster groups. It provides the single
// logical thread that camera changes, map-ready signals and animation completions are
// delivered on, a Web Mercator projection and a label visual.
package mapview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStopped is returned when work is handed to a loop that is no longer running.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs posted functions one at a time on a single goroutine.
// Every function Post accepts runs before Done is closed.
type Loop struct {
	log      *slog.Logger
	tasks    chan func()
	stopping chan struct{} // closed when Run stops taking new work
	done     chan struct{}

	mu      sync.RWMutex // held for reading while Post hands over a task
	stopped bool
}

// NewLoop creates a loop whose queue holds up to buffer functions before Post blocks.
func NewLoop(log *slog.Logger, buffer int) *Loop {
	return &Loop{
		log:   log,
		tasks:    make(chan func(), buffer),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run drains the queue until ctx is canceled. It must be called once.
// Functions already accepted by Post when ctx is canceled still run.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	l.log.DebugContext(ctx, "Event loop started")

	for {
		select {
		case <-ctx.Done():
			l.stop()
			l.log.DebugContext(ctx, "Event loop stopped")
			return
		case task := <-l.tasks:
			task()
		}
	}
}

func (l *Loop) stop() {
	close(l.stopping)

	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	for {
		select {
		case task := <-l.tasks:
			task()
		default:
			return
		}
	}
}

// Post queues fn. It reports false when the loop has stopped and fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.stopped {
		return false
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.stopping:
		return false
	}
}

// Call runs fn on the loop and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
