package compiler

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/tickflow/internal/ir"
)

// Warning is a plan smell that is not an error.
//
// Warnings are not errors because the missing half may live outside the
// plan set: hosts post events and set switches too.
type Warning struct {
	Plan    string `json:"plan"`
	Message string `json:"message"`
	Level   string `json:"level"` // "warning" or "info"
}

// Lint cross-checks a set of plans:
//   - events waited on that no plan emits (info: the host may send them)
//   - undo/redo on a stack that no plan records into (warning)
//   - an unbounded repeat outside any race (warning: it never completes)
//
// Results are sorted by plan, then message.
func Lint(plans []ir.Plan) []Warning {
	emitted := map[string]bool{}
	recorded := map[string]bool{}
	for _, p := range plans {
		walk(p.Steps, false, func(n ir.PlanNode, _ bool) {
			switch n.Kind {
			case ir.NodeEmit:
				emitted[n.Event] = true
			case ir.NodeRecord:
				recorded[n.Stack] = true
			}
		})
	}

	warnings := []Warning{}
	for _, p := range plans {
		walk(p.Steps, false, func(n ir.PlanNode, raced bool) {
			switch {
			case n.Kind == ir.NodeEvent && !emitted[n.Event]:
				warnings = append(warnings, Warning{
					Plan:    p.Name,
					Message: fmt.Sprintf("event %q is not emitted by any plan", n.Event),
					Level:   "info",
				})
			case (n.Kind == ir.NodeUndo || n.Kind == ir.NodeRedo) && !recorded[n.Stack]:
				warnings = append(warnings, Warning{
					Plan:    p.Name,
					Message: fmt.Sprintf("%s on stack %q, which no plan records into", n.Kind, n.Stack),
					Level:   "warning",
				})
			case n.Kind == ir.NodeRepeat && n.Count == 0 && !raced:
				warnings = append(warnings, Warning{
					Plan:    p.Name,
					Message: "unbounded repeat outside a race never completes",
					Level:   "warning",
				})
			}
		})
	}

	slices.SortStableFunc(warnings, func(a, b Warning) int {
		if c := cmp.Compare(a.Plan, b.Plan); c != 0 {
			return c
		}
		return cmp.Compare(a.Message, b.Message)
	})
	return slices.CompactFunc(warnings, func(a, b Warning) bool { return a == b })
}

// walk visits nodes depth-first. raced is true under a race branch.
func walk(nodes []ir.PlanNode, raced bool, fn func(n ir.PlanNode, raced bool)) {
	for _, n := range nodes {
		fn(n, raced)
		walk(n.Steps, raced, fn)
		for _, b := range n.Branches {
			walk(b, raced || n.Kind == ir.NodeRace, fn)
		}
	}
}
