// Package harness runs scripted scenarios against the scheduler.
//
// A scenario compiles CUE plans, spawns reactors running them, drives the
// engine through a tick script and then checks assertions about reactor
// status, plan variables, switches, the node trace, record history and
// persisted outcomes.
//
// # Scenario Format
//
//	name: pickup_jump
//	description: "a jump during the race wins it"
//	plans:
//	  - plans/pickup.cue
//	reactors:
//	  - plan: pickup
//	    name: p1
//	ticks:
//	  - delta: 250ms
//	    repeat: 3
//	  - events:
//	      - kind: jump
//	assertions:
//	  - type: completed
//	    reactor: p1
//	    at_tick: 4
//	  - type: var_equals
//	    var: score
//	    equals: 10
//	  - type: trace_order
//	    steps:
//	      - {path: "steps[0]", kind: delay}
//	      - {path: "steps[1]", kind: race}
//
// # Assertion Types
//
//   - completed, pending, failed, cancelled: a reactor's final status,
//     optionally with at_tick, equals or error_contains
//   - var_equals: a plan variable's value
//   - switch_is: a switch's state
//   - trace_contains, trace_order: completed plan nodes
//   - history: a record stack's entries and cursor, read from the store
//   - outcome_count: persisted reactor outcomes, optionally by status
//
// # Determinism
//
// Every run uses a fresh in-memory SQLite store, effect.InlineRuntime,
// reactor IDs taken from the scenario and fixed frame deltas, so the same
// scenario always produces byte-identical golden output.
package harness
