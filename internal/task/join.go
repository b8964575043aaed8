package task

import "github.com/roach88/tickflow/internal/world"

type join[T any] struct {
	children  []Task[T]
	results   []T
	remaining int
	result    Poll[[]T]
}

// Join polls every unfinished child on each poll and is ready once all of
// them are, with their values in registration order. Finished children are
// not polled again. The first failure cancels the remaining children and
// fails the Join with a *BranchError.
func Join[T any](children ...Task[T]) Task[[]T] {
	return &join[T]{
		children:  append([]Task[T](nil), children...),
		results:   make([]T, len(children)),
		remaining: len(children),
	}
}

func (t *join[T]) Poll(a *world.Access) Poll[[]T] {
	if t.result.ready {
		return t.result
	}
	for i, c := range t.children {
		if c == nil {
			continue
		}
		p := c.Poll(a)
		if !p.ready {
			continue
		}
		t.children[i] = nil
		if p.err != nil {
			t.Cancel()
			t.result = Failed[[]T](&BranchError{Index: i, Err: p.err})
			return t.result
		}
		t.results[i] = p.value
		t.remaining--
	}
	if t.remaining > 0 {
		return Pending[[]T]()
	}
	a.Progress()
	t.result = Ready(t.results)
	return t.result
}

func (t *join[T]) Cancel() {
	for i, c := range t.children {
		if c != nil {
			c.Cancel()
			t.children[i] = nil
		}
	}
}

// Pair is the value of Join2.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Join2 joins two tasks of different types.
func Join2[A, B any](first Task[A], second Task[B]) Task[Pair[A, B]] {
	j := Join(
		Map(first, func(v A) any { return v }),
		Map(second, func(v B) any { return v }),
	)
	return Map(j, func(vs []any) Pair[A, B] {
		a, _ := vs[0].(A)
		b, _ := vs[1].(B)
		return Pair[A, B]{First: a, Second: b}
	})
}
