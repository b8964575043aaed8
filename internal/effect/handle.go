package effect

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/tickflow/internal/task"
)

// Func is a background operation. It runs outside the tick and must not
// touch the world.
type Func[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	value T
	err   error
}

// Handle is one in-flight background operation and its single-slot result.
// Poll and Cancel are called from the tick goroutine; the operation writes
// the slot from its own goroutine.
type Handle[T any] struct {
	name      string
	slot      chan result[T]
	cancel    context.CancelFunc
	cancelled atomic.Bool
	taken     bool
	final     task.Poll[T]
}

// Spawn submits fn to rt. wake is called from the operation's goroutine
// after the result is written; it may be nil.
func Spawn[T any](rt Runtime, name string, fn Func[T], wake func()) (*Handle[T], error) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle[T]{
		name:   name,
		slot:   make(chan result[T], 1),
		cancel: cancel,
	}
	job := func(ctx context.Context) {
		v, err := run(ctx, fn)
		if h.cancelled.Load() {
			slog.Debug("effect finished after cancellation; result dropped",
				"effect", name, "error", err)
			return
		}
		h.slot <- result[T]{value: v, err: err}
		if wake != nil {
			wake()
		}
	}
	if err := rt.Submit(ctx, job); err != nil {
		cancel()
		return nil, fmt.Errorf("submit effect %s: %w", name, err)
	}
	return h, nil
}

func run[T any](ctx context.Context, fn Func[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Name returns the name the handle was spawned with.
func (h *Handle[T]) Name() string { return h.name }

// Poll is pending until the operation delivers, then ready with its value or
// with an EFFECT_FAILURE error. The slot is read once; later polls return
// the same result. A cancelled handle reports CANCELLED.
func (h *Handle[T]) Poll() task.Poll[T] {
	if h.taken {
		return h.final
	}
	if h.cancelled.Load() {
		return task.Failed[T](task.Cancelled("effect " + h.name))
	}
	select {
	case r := <-h.slot:
		h.taken = true
		h.cancel()
		if r.err != nil {
			h.final = task.Failed[T](task.EffectFailure(h.name, r.err))
		} else {
			h.final = task.Ready(r.value)
		}
		return h.final
	default:
		return task.Pending[T]()
	}
}

// Cancel signals the operation to stop. Its result, if it still produces
// one, is never delivered.
func (h *Handle[T]) Cancel() {
	if h.cancelled.CompareAndSwap(false, true) {
		h.cancel()
	}
}

// Cancelled reports whether Cancel was called.
func (h *Handle[T]) Cancelled() bool { return h.cancelled.Load() }

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
