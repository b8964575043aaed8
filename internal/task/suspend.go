package task

import (
	"time"

	"github.com/roach88/tickflow/internal/world"
)

type delay struct {
	d     time.Duration
	start time.Duration
	began bool
	done  bool
}

// Delay is ready once d of tick time has passed. Only frame deltas count, so
// a paused host pauses the delay. The delta of the tick it is first polled in
// counts: Delay(d) started on tick s is ready on the first tick t where the
// deltas of ticks s..t sum to d or more.
func Delay(d time.Duration) Task[struct{}] {
	return &delay{d: d}
}

func (t *delay) Poll(a *world.Access) Poll[struct{}] {
	if t.done {
		return Ready(struct{}{})
	}
	if !t.began {
		t.began = true
		t.start = a.Elapsed() - a.Delta()
	}
	if a.Elapsed()-t.start < t.d {
		return Pending[struct{}]()
	}
	t.done = true
	a.Progress()
	return Ready(struct{}{})
}

func (t *delay) Cancel() {}

type frames struct {
	n     int64
	start int64
	began bool
	done  bool
}

// Frames is ready on the n-th tick after the tick it was first polled in.
// Frames(0) is ready immediately.
func Frames(n int) Task[struct{}] {
	return &frames{n: int64(n)}
}

func (t *frames) Poll(a *world.Access) Poll[struct{}] {
	if t.done {
		return Ready(struct{}{})
	}
	if !t.began {
		t.began = true
		t.start = a.Tick()
	}
	if a.Tick()-t.start < t.n {
		return Pending[struct{}]()
	}
	t.done = true
	a.Progress()
	return Ready(struct{}{})
}

func (t *frames) Cancel() {}

type poller[T any] struct {
	fn     func(a *world.Access) Poll[T]
	result Poll[T]
}

// Poller wraps a host-specific query as a suspend point. fn is called on
// every poll until it returns a ready Poll.
func Poller[T any](fn func(a *world.Access) Poll[T]) Task[T] {
	return &poller[T]{fn: fn}
}

func (t *poller[T]) Poll(a *world.Access) Poll[T] {
	if t.result.ready {
		return t.result
	}
	p := t.fn(a)
	if p.ready {
		if p.err != nil {
			p.err = SuspendPointFailure(p.err)
		}
		t.result = p
		a.Progress()
	}
	return p
}

func (t *poller[T]) Cancel() {}

// Until is ready once pred returns true. pred is evaluated on every poll.
func Until(pred func(a *world.Access) bool) Task[struct{}] {
	return Poller(func(a *world.Access) Poll[struct{}] {
		if pred(a) {
			return Ready(struct{}{})
		}
		return Pending[struct{}]()
	})
}

// UntilErr is Until for predicates that can fail. An error becomes a
// suspend point failure.
func UntilErr(pred func(a *world.Access) (bool, error)) Task[struct{}] {
	return Poller(func(a *world.Access) Poll[struct{}] {
		ok, err := pred(a)
		switch {
		case err != nil:
			return Failed[struct{}](err)
		case ok:
			return Ready(struct{}{})
		default:
			return Pending[struct{}]()
		}
	})
}

// Event is ready with the next unread event of kind in the current frame.
// It consumes exactly one event.
func Event(kind string) Task[world.Event] {
	return Poller(func(a *world.Access) Poll[world.Event] {
		if ev, ok := a.Read(kind); ok {
			return Ready(ev)
		}
		return Pending[world.Event]()
	})
}

// Once runs fn on the first poll and is immediately ready with its result.
func Once[T any](fn func(a *world.Access) T) Task[T] {
	return Poller(func(a *world.Access) Poll[T] {
		return Ready(fn(a))
	})
}

// OnceErr is Once for actions that can fail.
func OnceErr[T any](fn func(a *world.Access) (T, error)) Task[T] {
	return Poller(func(a *world.Access) Poll[T] {
		v, err := fn(a)
		if err != nil {
			return Failed[T](err)
		}
		return Ready(v)
	})
}

// SwitchOn turns the named switch on.
func SwitchOn(name string) Task[struct{}] {
	return setSwitch(name, true)
}

// SwitchOff turns the named switch off.
func SwitchOff(name string) Task[struct{}] {
	return setSwitch(name, false)
}

func setSwitch(name string, on bool) Task[struct{}] {
	return Once(func(a *world.Access) struct{} {
		a.SetSwitch(name, on)
		return struct{}{}
	})
}

// WaitSwitch is ready once the named switch is in the given state.
func WaitSwitch(name string, on bool) Task[struct{}] {
	return Until(func(a *world.Access) bool {
		return a.Switch(name) == on
	})
}

type done[T any] struct{ p Poll[T] }

func (t done[T]) Poll(*world.Access) Poll[T] { return t.p }
func (t done[T]) Cancel()                    {}

// Done is ready with v on the first poll.
func Done[T any](v T) Task[T] { return done[T]{p: Ready(v)} }

// Fail fails with err on the first poll.
func Fail[T any](err error) Task[T] { return done[T]{p: Failed[T](err)} }

// Never is never ready.
func Never[T any]() Task[T] { return done[T]{p: Pending[T]()} }
