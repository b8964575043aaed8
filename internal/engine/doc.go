// Package engine is the reactor scheduler: it owns the registered root
// tasks and ticks each of them once per frame against the host's world.
//
// Each reactor borrows the world's Access for its own poll loop and releases
// it before the next reactor runs, so no task ever holds world access across
// a tick. Within its turn a reactor re-polls its root while the root keeps
// making progress (bounded by the step quota), so chains of already
// satisfied suspend points finish in a single frame.
//
// Thread-safety model:
//   - Spawn, Tick, Remove, Run: one goroutine (the host's frame loop)
//   - Inbox().Post, Wakeups(): any goroutine
//
// A reactor that fails or panics completes with that failure. Failures are
// returned in TickReport.Outcomes, logged, and written to the outcome sink;
// sibling reactors keep running.
package engine
