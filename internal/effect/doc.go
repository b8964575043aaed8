// Package effect bridges tasks to background work that runs outside the
// tick cadence.
//
// Spawn submits a Func to a Runtime. The Func runs in its own goroutine (or
// inline, for deterministic tests) and delivers exactly one result into a
// single-slot channel that the owning task polls. Background work never sees
// the world; it only returns a value or an error.
//
// Cancelling a Handle cancels the Func's context. A Func that finishes after
// cancellation has nowhere to deliver to: its result is dropped and logged at
// debug level.
package effect
