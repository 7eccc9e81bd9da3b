package lookup

import (
	"context"
	"errors"
)

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("lookup: event loop stopped")

// Runtime moves work between the session goroutine and the background.
// Go runs blocking work off the session goroutine; Post queues fn to run on
// it.
type Runtime interface {
	Go(fn func())
	Post(fn func())
}

// EventLoop is the production Runtime. Every posted func runs on the
// goroutine that called Run, one at a time.
type EventLoop struct {
	events chan func()
	done   chan struct{}
}

// NewEventLoop creates a loop with room for buffer queued events.
func NewEventLoop(buffer int) *EventLoop {
	return &EventLoop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Go runs fn on a new goroutine.
func (l *EventLoop) Go(fn func()) {
	go fn()
}

// Post queues fn for the loop. Posts after the loop stopped are dropped.
func (l *EventLoop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop goroutine.
func (l *EventLoop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case l.events <- func() { defer close(finished); fn() }:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
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

// Run processes events until ctx is done. A loop runs once.
func (l *EventLoop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.events:
			fn()
		}
	}
}
