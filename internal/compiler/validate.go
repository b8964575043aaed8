package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/tickflow/internal/ir"
)

// Validate checks a compiled plan and returns every problem found (it
// does not fail fast). Plans built by hand or decoded from JSON go through
// the same checks as compiled ones.
func Validate(p *ir.Plan) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "plan name is required",
			Code:    ErrCodeMissingName,
		})
	}
	validateNodes(p.Steps, "steps", &errs)
	return errs
}

func validateNodes(nodes []ir.PlanNode, field string, errs *[]ValidationError) {
	for i, n := range nodes {
		validateNode(n, fmt.Sprintf("%s[%d]", field, i), errs)
	}
}

func validateNode(n ir.PlanNode, field string, errs *[]ValidationError) {
	add := func(code, sub, msg string) {
		f := field
		if sub != "" {
			f += "." + sub
		}
		*errs = append(*errs, ValidationError{Field: f, Message: msg, Code: code})
	}
	requireName := func(sub, v string) {
		if strings.TrimSpace(v) == "" {
			add(ErrCodeMissingName, sub, "is required")
		}
	}

	if !ir.ValidNodeKinds[n.Kind] {
		add(ErrCodeUnknownKind, "kind", fmt.Sprintf("unknown step kind %q", n.Kind))
		return
	}

	switch n.Kind {
	case ir.NodeDelay:
		validateDuration(n.Duration, add)
	case ir.NodeFrames:
		if n.Count < 0 {
			add(ErrCodeBadDuration, "count", fmt.Sprintf("must not be negative, got %d", n.Count))
		}
	case ir.NodeEvent:
		requireName("event", n.Event)
	case ir.NodeWaitVar, ir.NodeSet, ir.NodeAdd:
		requireName("var", n.Var)
	case ir.NodeWaitSwitch, ir.NodeSwitch:
		requireName("switch", n.Switch)
	case ir.NodeEmit:
		requireName("event", n.Event)
	case ir.NodeEffect:
		validateDuration(n.Duration, add)
	case ir.NodeRecord:
		requireName("stack", n.Stack)
		requireName("var", n.Var)
	case ir.NodeUndo, ir.NodeRedo:
		requireName("stack", n.Stack)
	case ir.NodeSequence:
		validateNodes(n.Steps, field+".steps", errs)
	case ir.NodeRace, ir.NodeJoin:
		if len(n.Branches) == 0 {
			add(ErrCodeEmptyBranches, "branches", "at least one branch is required")
		}
		for i, b := range n.Branches {
			validateNodes(b, fmt.Sprintf("%s.branches[%d]", field, i), errs)
		}
	case ir.NodeRepeat:
		if n.Count < 0 {
			add(ErrCodeBadDuration, "count", fmt.Sprintf("must not be negative, got %d", n.Count))
		}
		if len(n.Steps) == 0 {
			add(ErrCodeEmptyBranches, "steps", "repeat requires at least one step")
		}
		validateNodes(n.Steps, field+".steps", errs)
	}
}

func validateDuration(s string, add func(code, sub, msg string)) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		add(ErrCodeBadDuration, "duration", fmt.Sprintf("invalid duration %q", s))
	}
}
