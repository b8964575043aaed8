package task

import "github.com/roach88/tickflow/internal/world"

// Poll is the result of polling a Task: pending, ready with a value, or
// ready with an error.
type Poll[T any] struct {
	value T
	err   error
	ready bool
}

// Ready returns a ready Poll holding v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{value: v, ready: true}
}

// Failed returns a ready Poll holding err.
func Failed[T any](err error) Poll[T] {
	return Poll[T]{err: err, ready: true}
}

// Pending returns a Poll that is not ready.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// IsReady reports whether the Poll is terminal.
func (p Poll[T]) IsReady() bool { return p.ready }

// Value returns the ready value, or the zero value.
func (p Poll[T]) Value() T { return p.value }

// Err returns the failure, if any.
func (p Poll[T]) Err() error { return p.err }

// Unpack returns the value and error together.
func (p Poll[T]) Unpack() (T, error) { return p.value, p.err }

// Task is a suspended computation producing a T.
type Task[T any] interface {
	// Poll advances the task using the tick's Access. It may be called
	// several times within one tick and must tolerate that.
	Poll(a *world.Access) Poll[T]

	// Cancel drops the task and its children. It is idempotent.
	Cancel()
}

// forward converts a terminal failure of one type to another.
func forward[B, A any](p Poll[A]) Poll[B] {
	if p.err != nil {
		return Failed[B](p.err)
	}
	return Pending[B]()
}
