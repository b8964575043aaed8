// Package world is the headless host world the scheduler runs against and
// the tick-scoped Access capability that grants exclusive use of it.
//
// A World holds typed resources, named switches, entity handles and a
// double-buffered event queue. Nothing outside a tick may touch it through
// an Access: World.Borrow hands out at most one live Access, and every
// method on a released Access panics with ErrAccessExpired.
//
// Host loop:
//
//	w.Send("jump", nil)         // queued for the next frame
//	w.Advance(16 * time.Millisecond)
//	report, err := eng.Tick(ctx, w)
package world
