package engine

import (
	"context"
	"sync"

	"github.com/roach88/tickflow/internal/world"
)

// HostEvent is an event posted from outside the tick goroutine.
type HostEvent struct {
	Kind    string
	Payload any
}

// Inbox is a FIFO of host events fed from any goroutine and drained into
// the World on the tick goroutine.
//
// The queue is unbounded so input handlers never block. signal coalesces
// postings so Run can wait on it alongside the tick timer.
type Inbox struct {
	mu     sync.Mutex
	events []HostEvent
	closed bool
	signal chan struct{}
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{
		events: make([]HostEvent, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Post appends an event. It returns false once the inbox is closed.
func (q *Inbox) Post(kind string, payload any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, HostEvent{Kind: kind, Payload: payload})

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain sends every queued event to w, in posting order, and returns how
// many were delivered. They become readable on the next Advance.
func (q *Inbox) Drain(w *world.World) int {
	q.mu.Lock()
	batch := q.events
	q.events = make([]HostEvent, 0, cap(batch))
	q.mu.Unlock()

	for _, ev := range batch {
		w.Send(ev.Kind, ev.Payload)
	}
	return len(batch)
}

// Len returns the number of queued events.
func (q *Inbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Ready returns a channel that receives after a Post.
func (q *Inbox) Ready() <-chan struct{} {
	return q.signal
}

// Wait blocks until an event is posted or ctx is done.
func (q *Inbox) Wait(ctx context.Context) error {
	select {
	case <-q.signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further posts. Queued events can still be drained.
func (q *Inbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
