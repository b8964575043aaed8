package task

import (
	"time"

	"github.com/roach88/tickflow/internal/world"
)

// driver ticks a single task the way a reactor does: one Access per tick,
// re-polling while progress is made.
type driver struct {
	w        *world.World
	reader   world.Reader
	maxSteps int
}

func newDriver() *driver {
	return &driver{w: world.New(), maxSteps: 1000}
}

func step[T any](d *driver, delta time.Duration, t Task[T]) Poll[T] {
	d.w.Advance(delta)
	a, err := d.w.Borrow(world.Scope{Reader: &d.reader, MaxSteps: d.maxSteps})
	if err != nil {
		panic(err)
	}
	defer a.Release()
	for {
		before := a.Steps()
		p := t.Poll(a)
		if p.IsReady() || a.Steps() == before || a.Exhausted() {
			return p
		}
	}
}

// probe is a task that becomes ready on a fixed tick and records how it
// was driven.
type probe struct {
	readyAt   int64
	value     int
	err       error
	polls     int
	cancelled bool
}

func (p *probe) Poll(a *world.Access) Poll[int] {
	p.polls++
	if p.readyAt == 0 || a.Tick() < p.readyAt {
		return Pending[int]()
	}
	a.Progress()
	if p.err != nil {
		return Failed[int](p.err)
	}
	return Ready(p.value)
}

func (p *probe) Cancel() { p.cancelled = true }
