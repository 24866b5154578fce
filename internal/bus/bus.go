package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// ErrClosed is returned by Receive once the queue is closed and drained.
var ErrClosed = errors.New("event bus is closed")

// Queue is the unbounded multi-producer single-consumer event queue.
// Publishers never block; event rates here are human and IoT scale, so the
// queue deliberately stays unbounded rather than dropping under a bound.
type Queue struct {
	// mu protects items and closed.
	mu sync.Mutex
	// items is the pending event backlog in arrival order.
	items []event.Event
	// notify wakes the consumer when the backlog transitions to non-empty.
	notify chan struct{}
	// closed is set once Close is called; later publishes are dropped.
	closed bool
	// now stamps arrival times, replaceable in tests.
	now func() time.Time
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		now:    time.Now,
	}
}

// Publish appends an event to the queue, stamping its arrival time when the
// producer left it zero. Events published after Close are dropped: a late
// timer firing into a shut-down panel has nobody left to act on it.
func (q *Queue) Publish(ev event.Event) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return
	}

	if ev.Arrived.IsZero() {
		ev.Arrived = q.now()
	}

	q.items = append(q.items, ev)
	q.mu.Unlock()

	q.wake()
}

// Schedule publishes the event after the delay elapses. The returned timer
// is for tests; callers relying on generation tags never stop it.
func (q *Queue) Schedule(delay time.Duration, ev event.Event) *time.Timer {
	return time.AfterFunc(delay, func() {
		q.Publish(ev)
	})
}

// Receive blocks until an event is available, the queue is closed and
// drained, or the context is canceled.
func (q *Queue) Receive(ctx context.Context) (event.Event, error) {
	for {
		q.mu.Lock()

		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()

			return ev, nil
		}

		closed := q.closed
		q.mu.Unlock()

		if closed {
			return event.Event{}, ErrClosed
		}

		select {
		case <-ctx.Done():
			return event.Event{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Close stops accepting new events. Already queued events remain receivable
// until the backlog drains.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// Len reports the backlog size.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// wake nudges the consumer without blocking the publisher.
func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
