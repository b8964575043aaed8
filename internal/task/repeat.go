package task

import "github.com/roach88/tickflow/internal/world"

type repeat[T any] struct {
	factory func() Task[T]
	current Task[T]
	limit   int
	count   int
	last    T
	result  Poll[T]
	stopped bool
}

// Repeat runs factory() to completion, then immediately runs a fresh
// factory() again, forever. Nothing carries over between iterations except
// what factory captures. An iteration that fails fails the Repeat.
//
// Each finished iteration takes one step from the tick's quota; once the
// quota is exhausted Repeat waits for the next tick. Stop a Repeat by
// racing it against a terminating task.
func Repeat[T any](factory func() Task[T]) Task[T] {
	return &repeat[T]{factory: factory}
}

// RepeatN is Repeat limited to n iterations. It is ready with the last
// iteration's value; RepeatN(0, f) is ready with the zero value.
func RepeatN[T any](n int, factory func() Task[T]) Task[T] {
	if n <= 0 {
		var zero T
		return Done(zero)
	}
	return &repeat[T]{factory: factory, limit: n}
}

// Iterations reports how many iterations of t have finished, if t was made
// by Repeat or RepeatN.
func Iterations[T any](t Task[T]) (int, bool) {
	r, ok := t.(*repeat[T])
	if !ok {
		return 0, false
	}
	return r.count, true
}

func (t *repeat[T]) Poll(a *world.Access) Poll[T] {
	if t.result.ready {
		return t.result
	}
	for {
		if t.stopped {
			return Pending[T]()
		}
		if t.current == nil {
			t.current = t.factory()
		}
		p := t.current.Poll(a)
		if t.stopped || !p.ready {
			return Pending[T]()
		}
		t.current = nil
		if p.err != nil {
			t.result = Failed[T](p.err)
			return t.result
		}
		t.count++
		t.last = p.value
		a.Progress()
		if t.limit > 0 && t.count >= t.limit {
			t.result = Ready(t.last)
			return t.result
		}
		if a.Exhausted() {
			return Pending[T]()
		}
	}
}

func (t *repeat[T]) Cancel() {
	t.stopped = true
	if t.current != nil {
		t.current.Cancel()
		t.current = nil
	}
}
