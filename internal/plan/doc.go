// Package plan turns a compiled ir.Plan into a runnable task tree.
//
// Each plan node becomes one suspend point or combinator from package task,
// with ir.IRValue as the value type throughout. Plan variables live in the
// World as a *Vars resource, so every reactor running a plan against the
// same World sees the same variables. Record stacks come from the Env.
//
//	t, err := plan.Build(p, env, "pickup-1")
//	h, err := engine.Spawn(eng, t, engine.WithName(p.Name))
package plan
