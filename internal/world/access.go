package world

import (
	"context"
	"time"
)

// Access is the capability to read and write the World during one tick.
//
// Tasks receive an Access as a Poll argument and must not keep it: the
// reactor releases it before its tick returns, after which every method
// panics with ErrAccessExpired.
type Access struct {
	w        *World
	scope    Scope
	ctx      context.Context
	steps    int
	released bool
}

func (a *Access) check() {
	if a == nil || a.released {
		panic(ErrAccessExpired)
	}
}

// Release ends the Access. Releasing twice is a no-op.
func (a *Access) Release() {
	if a.released {
		return
	}
	a.released = true
	if a.w.live == a {
		a.w.live = nil
	}
}

// Valid reports whether the Access can still be used.
func (a *Access) Valid() bool {
	return a != nil && !a.released
}

// WithContext attaches ctx for the duration of the Access. Journal writes
// made through record stacks use it.
func (a *Access) WithContext(ctx context.Context) *Access {
	a.check()
	a.ctx = ctx
	return a
}

// Context returns the tick's context, or context.Background.
func (a *Access) Context() context.Context {
	a.check()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Tick returns the current frame number.
func (a *Access) Tick() int64 {
	a.check()
	return a.w.tick
}

// Delta returns the current frame's elapsed time.
func (a *Access) Delta() time.Duration {
	a.check()
	return a.w.delta
}

// Elapsed returns the World's total elapsed time.
func (a *Access) Elapsed() time.Duration {
	a.check()
	return a.w.elapsed
}

// Read consumes the next unread event of kind from this frame's buffer.
func (a *Access) Read(kind string) (Event, bool) {
	a.check()
	return a.scope.Reader.next(a.w.current, kind)
}

// Pending reports whether an unread event of kind is available without
// consuming it.
func (a *Access) Pending(kind string) bool {
	a.check()
	return a.scope.Reader.peek(a.w.current, kind)
}

// Send queues an event for the next frame.
func (a *Access) Send(kind string, payload any) Event {
	a.check()
	return a.w.Send(kind, payload)
}

// Switch reports whether the named switch is on.
func (a *Access) Switch(name string) bool {
	a.check()
	return a.w.Switch(name)
}

// SetSwitch turns the named switch on or off.
func (a *Access) SetSwitch(name string, on bool) {
	a.check()
	a.w.SetSwitch(name, on)
}

// JustTurnedOn reports whether the switch went on this tick.
func (a *Access) JustTurnedOn(name string) bool {
	a.check()
	return a.w.JustTurnedOn(name)
}

// JustTurnedOff reports whether the switch went off this tick.
func (a *Access) JustTurnedOff(name string) bool {
	a.check()
	return a.w.JustTurnedOff(name)
}

// Spawn allocates a live entity.
func (a *Access) Spawn() Entity {
	a.check()
	return a.w.Spawn()
}

// Despawn removes an entity.
func (a *Access) Despawn(e Entity) bool {
	a.check()
	return a.w.Despawn(e)
}

// Alive reports whether e is alive.
func (a *Access) Alive(e Entity) bool {
	a.check()
	return a.w.Alive(e)
}

// Wake returns the reactor's wake function. It is safe to call from any
// goroutine and after the Access is released.
func (a *Access) Wake() func() {
	a.check()
	if a.scope.Wake == nil {
		return func() {}
	}
	return a.scope.Wake
}

// Progress records one unit of work: a suspend point became ready or a
// combinator advanced. The reactor re-polls while progress is being made.
func (a *Access) Progress() {
	a.check()
	a.steps++
}

// Steps returns the progress recorded so far.
func (a *Access) Steps() int {
	a.check()
	return a.steps
}

// Exhausted reports whether the step quota for this tick is used up.
func (a *Access) Exhausted() bool {
	a.check()
	return a.scope.MaxSteps > 0 && a.steps >= a.scope.MaxSteps
}
