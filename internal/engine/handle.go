package engine

// Handle is the typed view of a spawned reactor.
type Handle[T any] struct {
	e    *Engine
	r    *Reactor
	root *typedRoot[T]
}

// ID returns the reactor ID.
func (h *Handle[T]) ID() string { return h.r.id }

// Reactor returns the underlying reactor.
func (h *Handle[T]) Reactor() *Reactor { return h.r }

// Status returns the reactor's lifecycle state.
func (h *Handle[T]) Status() Status { return h.r.status }

// Done reports whether the reactor has finished.
func (h *Handle[T]) Done() bool { return h.r.status.Done() }

// Result returns the root task's value and terminal error. It returns
// ErrNotDone while the reactor is pending.
func (h *Handle[T]) Result() (T, error) {
	if !h.r.status.Done() {
		var zero T
		return zero, ErrNotDone
	}
	return h.root.value, h.r.err
}

// Cancel removes the reactor. See Engine.Remove.
func (h *Handle[T]) Cancel() bool { return h.e.Remove(h.r.id) }
