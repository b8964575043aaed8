package effect

import (
	"context"
	"time"

	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

type await[T any] struct {
	rt     Runtime
	name   string
	fn     Func[T]
	handle *Handle[T]
	result task.Poll[T]
}

// Await is a task that spawns fn on its first poll and is ready when fn
// delivers. Cancelling the task cancels the handle.
func Await[T any](rt Runtime, name string, fn Func[T]) task.Task[T] {
	return &await[T]{rt: rt, name: name, fn: fn}
}

func (t *await[T]) Poll(a *world.Access) task.Poll[T] {
	if t.result.IsReady() {
		return t.result
	}
	if t.handle == nil {
		h, err := Spawn(t.rt, t.name, t.fn, a.Wake())
		if err != nil {
			t.result = task.Failed[T](task.EffectFailure(t.name, err))
			a.Progress()
			return t.result
		}
		t.handle = h
	}
	p := t.handle.Poll()
	if p.IsReady() {
		t.result = p
		a.Progress()
	}
	return p
}

func (t *await[T]) Cancel() {
	if t.handle != nil && !t.result.IsReady() {
		t.handle.Cancel()
	}
}

// Sleep is a background timer: ready after d of wall-clock time.
func Sleep(rt Runtime, d time.Duration) task.Task[struct{}] {
	return Await(rt, "sleep", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, Wait(ctx, d)
	})
}
