package task

import (
	"time"

	"github.com/roach88/tickflow/internal/world"
)

type then[A, B any] struct {
	first  Task[A]
	next   func(A) Task[B]
	second Task[B]
	result Poll[B]
}

// Then runs first, passes its value to next and runs the task next returns.
// The second task is polled in the same tick the first becomes ready.
// A failure of first is terminal; next is not called.
func Then[A, B any](first Task[A], next func(A) Task[B]) Task[B] {
	return &then[A, B]{first: first, next: next}
}

func (t *then[A, B]) Poll(a *world.Access) Poll[B] {
	if t.result.ready {
		return t.result
	}
	if t.first == nil && t.second == nil {
		return Pending[B]()
	}
	if t.second == nil {
		p := t.first.Poll(a)
		if t.first == nil || !p.ready {
			// nil: cancelled from inside first.
			return Pending[B]()
		}
		t.first = nil
		if p.err != nil {
			t.result = Failed[B](p.err)
			return t.result
		}
		t.second = t.next(p.value)
		a.Progress()
	}
	p := t.second.Poll(a)
	if t.second == nil {
		return Pending[B]()
	}
	if p.ready {
		t.result = p
		t.second = nil
	}
	return p
}

func (t *then[A, B]) Cancel() {
	if t.first != nil {
		t.first.Cancel()
		t.first = nil
	}
	if t.second != nil {
		t.second.Cancel()
		t.second = nil
	}
}

type sequence[T any] struct {
	steps  []Task[T]
	index  int
	result Poll[T]
}

// Sequence runs steps in order and is ready with the last step's value.
// An empty Sequence is ready with the zero value.
func Sequence[T any](steps ...Task[T]) Task[T] {
	return &sequence[T]{steps: append([]Task[T](nil), steps...)}
}

func (t *sequence[T]) Poll(a *world.Access) Poll[T] {
	if t.result.ready {
		return t.result
	}
	if len(t.steps) == 0 {
		var zero T
		t.result = Ready(zero)
		return t.result
	}
	for {
		step := t.steps[t.index]
		if step == nil {
			return Pending[T]()
		}
		p := step.Poll(a)
		if t.steps[t.index] == nil {
			// The step cancelled the sequence.
			return Pending[T]()
		}
		if !p.ready {
			return p
		}
		t.steps[t.index] = nil
		if p.err != nil || t.index == len(t.steps)-1 {
			t.result = p
			return p
		}
		t.index++
		a.Progress()
	}
}

func (t *sequence[T]) Cancel() {
	for i := t.index; i < len(t.steps); i++ {
		if t.steps[i] != nil {
			t.steps[i].Cancel()
			t.steps[i] = nil
		}
	}
}

type mapped[A, B any] struct {
	inner Task[A]
	fn    func(A) B
}

// Map transforms a task's value.
func Map[A, B any](t Task[A], fn func(A) B) Task[B] {
	return &mapped[A, B]{inner: t, fn: fn}
}

func (t *mapped[A, B]) Poll(a *world.Access) Poll[B] {
	p := t.inner.Poll(a)
	if !p.ready || p.err != nil {
		return forward[B](p)
	}
	return Ready(t.fn(p.value))
}

func (t *mapped[A, B]) Cancel() { t.inner.Cancel() }

// Discard drops a task's value.
func Discard[T any](t Task[T]) Task[struct{}] {
	return Map(t, func(T) struct{} { return struct{}{} })
}

// If evaluates cond on the first poll and continues with yes() or no().
func If[T any](cond func(a *world.Access) bool, yes, no func() Task[T]) Task[T] {
	return Then(Once(cond), func(ok bool) Task[T] {
		if ok {
			return yes()
		}
		return no()
	})
}

type timeout[T any] struct {
	inner    Task[T]
	deadline Task[struct{}]
	result   Poll[T]
}

// Timeout fails with a TIMEOUT error if t is not ready within d of tick
// time. t is polled before the deadline, so t wins a same-tick tie.
func Timeout[T any](t Task[T], d time.Duration) Task[T] {
	return &timeout[T]{inner: t, deadline: Delay(d)}
}

func (t *timeout[T]) Poll(a *world.Access) Poll[T] {
	if t.result.ready {
		return t.result
	}
	if p := t.inner.Poll(a); p.ready {
		t.result = p
		return p
	}
	if t.deadline.Poll(a).ready {
		t.inner.Cancel()
		t.result = Failed[T](&Error{Code: CodeTimeout, Message: "timeout", Err: ErrTimeout})
		return t.result
	}
	return Pending[T]()
}

func (t *timeout[T]) Cancel() {
	if !t.result.ready {
		t.inner.Cancel()
	}
}
