package engine

import (
	"runtime/debug"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

// Status is a reactor's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Done reports whether the status is terminal.
func (s Status) Done() bool { return s != StatusPending }

func (s Status) outcome() ir.OutcomeStatus {
	switch s {
	case StatusFailed:
		return ir.OutcomeFailed
	case StatusCancelled:
		return ir.OutcomeCancelled
	default:
		return ir.OutcomeCompleted
	}
}

// root erases the value type of a reactor's task.
type root interface {
	poll(a *world.Access) (bool, error)
	cancel()
}

type typedRoot[T any] struct {
	t     task.Task[T]
	value T
}

func (r *typedRoot[T]) poll(a *world.Access) (bool, error) {
	p := r.t.Poll(a)
	if !p.IsReady() {
		return false, nil
	}
	v, err := p.Unpack()
	r.value = v
	return true, err
}

func (r *typedRoot[T]) cancel() { r.t.Cancel() }

// Reactor owns one root task and drives it once per tick.
type Reactor struct {
	id        string
	name      string
	entity    world.Entity
	hasEntity bool

	root   root
	reader world.Reader

	status      Status
	err         error
	spawnedTick int64
	doneTick    int64
	polls       int
}

// ID returns the reactor's unique ID.
func (r *Reactor) ID() string { return r.id }

// Name returns the label given at spawn, or the ID.
func (r *Reactor) Name() string { return r.name }

// Entity returns the entity the reactor is attached to, if any.
func (r *Reactor) Entity() (world.Entity, bool) { return r.entity, r.hasEntity }

// Status returns the lifecycle state.
func (r *Reactor) Status() Status { return r.status }

// Err returns the terminal error of a failed or cancelled reactor.
func (r *Reactor) Err() error { return r.err }

// SpawnedTick is the world tick observed when the reactor was registered.
func (r *Reactor) SpawnedTick() int64 { return r.spawnedTick }

// DoneTick is the tick the reactor reached a terminal state, or 0.
func (r *Reactor) DoneTick() int64 { return r.doneTick }

// Polls counts root polls across all ticks.
func (r *Reactor) Polls() int { return r.polls }

// drive polls the root until it finishes, stops making progress, or the
// step quota runs out. A panic cancels the whole tree and fails the reactor.
func (r *Reactor) drive(a *world.Access) (done bool, err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		stack := debug.Stack()
		func() {
			defer func() { _ = recover() }()
			r.root.cancel()
		}()
		done = true
		err = &task.Error{
			Code:    task.CodePanic,
			Message: "reactor " + r.id + " panicked",
			Err:     &PanicError{Value: v, Stack: stack},
		}
	}()

	for {
		before := a.Steps()
		r.polls++
		done, err = r.root.poll(a)
		if r.status.Done() {
			// Removed from inside its own task.
			return false, nil
		}
		if done {
			return done, err
		}
		if a.Steps() == before || a.Exhausted() {
			return false, nil
		}
	}
}
