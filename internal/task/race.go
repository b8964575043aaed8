package task

import "github.com/roach88/tickflow/internal/world"

// Raced is the value of a Race: which child won and what it produced.
type Raced[T any] struct {
	Index int
	Value T
}

type race[T any] struct {
	children []Task[T]
	result   Poll[Raced[T]]
}

// Race polls its children in registration order on every poll and is ready
// with the first child to become ready. A child that fails wins like any
// other, with a *BranchError. The losers are cancelled before Race returns,
// so when several children are ready in the same tick the earliest
// registered one wins and the rest never run again.
//
// A Race with no children never completes.
func Race[T any](children ...Task[T]) Task[Raced[T]] {
	return &race[T]{children: append([]Task[T](nil), children...)}
}

func (t *race[T]) Poll(a *world.Access) Poll[Raced[T]] {
	if t.result.ready {
		return t.result
	}
	for i, c := range t.children {
		p := c.Poll(a)
		if !p.ready {
			continue
		}
		t.children[i] = nil
		t.Cancel()
		if p.err != nil {
			t.result = Failed[Raced[T]](&BranchError{Index: i, Err: p.err})
		} else {
			t.result = Ready(Raced[T]{Index: i, Value: p.value})
		}
		a.Progress()
		return t.result
	}
	return Pending[Raced[T]]()
}

func (t *race[T]) Cancel() {
	for i, c := range t.children {
		if c != nil {
			c.Cancel()
			t.children[i] = nil
		}
	}
}

// Either is the value of Race2. IsRight tells which side won.
type Either[L, R any] struct {
	Left    L
	Right   R
	IsRight bool
}

// Race2 races two tasks of different types.
func Race2[L, R any](left Task[L], right Task[R]) Task[Either[L, R]] {
	r := Race(
		Map(left, func(v L) any { return v }),
		Map(right, func(v R) any { return v }),
	)
	return Map(r, func(w Raced[any]) Either[L, R] {
		if w.Index == 0 {
			l, _ := w.Value.(L)
			return Either[L, R]{Left: l}
		}
		r, _ := w.Value.(R)
		return Either[L, R]{Right: r, IsRight: true}
	})
}
