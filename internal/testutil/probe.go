package testutil

import (
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

// Probe is a task that becomes ready on tick ReadyAt and records how it
// was driven. ReadyAt 0 never becomes ready.
type Probe[T any] struct {
	ReadyAt int64
	Value   T
	Err     error
	Panic   any

	Polls     int
	Cancelled int
	PolledAt  []int64
}

// Poll implements task.Task.
func (p *Probe[T]) Poll(a *world.Access) task.Poll[T] {
	p.Polls++
	p.PolledAt = append(p.PolledAt, a.Tick())
	if p.ReadyAt == 0 || a.Tick() < p.ReadyAt {
		return task.Pending[T]()
	}
	if p.Panic != nil {
		panic(p.Panic)
	}
	a.Progress()
	if p.Err != nil {
		return task.Failed[T](p.Err)
	}
	return task.Ready(p.Value)
}

// Cancel implements task.Task.
func (p *Probe[T]) Cancel() { p.Cancelled++ }
