package effect

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrRuntimeClosed is returned by Submit after Close.
var ErrRuntimeClosed = errors.New("effect runtime closed")

// Runtime runs background jobs. A job must eventually return; it should
// watch ctx for cancellation.
type Runtime interface {
	Submit(ctx context.Context, job func(ctx context.Context)) error
}

// GoRuntime runs every job in its own goroutine.
type GoRuntime struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewGoRuntime creates an unbounded goroutine runtime.
func NewGoRuntime() *GoRuntime {
	return &GoRuntime{}
}

// Submit starts job in a new goroutine.
func (r *GoRuntime) Submit(ctx context.Context, job func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}
	r.wg.Go(func() { job(ctx) })
	return nil
}

// Close rejects further jobs and waits for running ones.
func (r *GoRuntime) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// PoolRuntime runs at most a fixed number of jobs at once. Jobs beyond the
// limit wait for a slot, or give up when their context is cancelled.
type PoolRuntime struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewPoolRuntime creates a runtime with the given number of workers.
func NewPoolRuntime(workers int) (*PoolRuntime, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("pool runtime needs at least one worker, got %d", workers)
	}
	return &PoolRuntime{sem: semaphore.NewWeighted(int64(workers))}, nil
}

// Submit queues job for the next free worker.
func (r *PoolRuntime) Submit(ctx context.Context, job func(ctx context.Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}
	r.wg.Go(func() {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer r.sem.Release(1)
		job(ctx)
	})
	return nil
}

// Close rejects further jobs and waits for queued and running ones.
func (r *PoolRuntime) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// InlineRuntime runs each job synchronously inside Submit. Results are
// available on the first poll, which makes scenario runs deterministic.
type InlineRuntime struct{}

// Submit runs job before returning.
func (InlineRuntime) Submit(ctx context.Context, job func(ctx context.Context)) error {
	job(ctx)
	return nil
}
