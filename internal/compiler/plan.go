package compiler

import (
	"fmt"
	"slices"
	"time"

	"cuelang.org/go/cue"

	"github.com/roach88/tickflow/internal/ir"
)

// CompilePlan parses a CUE value into a Plan. Uses the CUE SDK's Go API
// directly.
//
// The CUE value should be the plan struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`plan: pickup: { steps: [...] }`)
//	p, err := CompilePlan(v.LookupPath(cue.ParsePath("plan.pickup")))
func CompilePlan(v cue.Value) (*ir.Plan, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, "plan")
	}

	p := &ir.Plan{}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		p.Name = sels[len(sels)-1].Unquoted()
	}

	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() {
		s, err := desc.String()
		if err != nil {
			return nil, formatCUEError(err, "description")
		}
		p.Description = s
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeMissingName,
			Field:   "steps",
			Message: "steps are required",
			Pos:     v.Pos(),
		}
	}
	steps, err := compileNodes(stepsVal, "steps")
	if err != nil {
		return nil, err
	}
	p.Steps = steps
	return p, nil
}

func compileNodes(v cue.Value, field string) ([]ir.PlanNode, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err, field)
	}
	nodes := []ir.PlanNode{}
	for i := 0; iter.Next(); i++ {
		n, err := compileNode(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func compileNode(v cue.Value, field string) (ir.PlanNode, error) {
	iter, err := v.Fields()
	if err != nil {
		return ir.PlanNode{}, formatCUEError(err, field)
	}

	var (
		kinds []string
		body  cue.Value
	)
	for iter.Next() {
		kinds = append(kinds, iter.Selector().Unquoted())
		body = iter.Value()
	}
	switch len(kinds) {
	case 0:
		return ir.PlanNode{}, &CompileError{
			Code:    ErrCodeUnknownKind,
			Field:   field,
			Message: "step has no kind",
			Pos:     v.Pos(),
		}
	case 1:
	default:
		slices.Sort(kinds)
		return ir.PlanNode{}, &CompileError{
			Code:    ErrCodeAmbiguousNode,
			Field:   field,
			Message: fmt.Sprintf("step must have exactly one kind, got %v", kinds),
			Pos:     v.Pos(),
		}
	}

	kind := ir.NodeKind(kinds[0])
	field = field + "." + kinds[0]
	n := ir.PlanNode{Kind: kind}

	switch kind {
	case ir.NodeDelay:
		n.Duration, err = durationString(body, field)

	case ir.NodeFrames:
		n.Count, err = count(body, field)

	case ir.NodeEvent:
		n.Event, err = name(body, field)

	case ir.NodeLog:
		n.Message, err = str(body, field)

	case ir.NodeUndo, ir.NodeRedo:
		n.Stack, err = name(body, field)

	case ir.NodeWaitVar:
		if n.Var, err = name(body.LookupPath(cue.ParsePath("var")), field+".var"); err == nil {
			n.Value, err = required(body, "equals", field)
		}

	case ir.NodeWaitSwitch, ir.NodeSwitch:
		if n.Switch, err = name(body.LookupPath(cue.ParsePath("name")), field+".name"); err == nil {
			n.On, err = optionalBool(body, "on", true, field)
		}

	case ir.NodeSet:
		if n.Var, err = name(body.LookupPath(cue.ParsePath("var")), field+".var"); err == nil {
			n.Value, err = required(body, "value", field)
		}

	case ir.NodeAdd:
		if n.Var, err = name(body.LookupPath(cue.ParsePath("var")), field+".var"); err == nil {
			n.Count, err = signedInt(body.LookupPath(cue.ParsePath("by")), field+".by")
		}

	case ir.NodeEmit:
		if n.Event, err = name(body.LookupPath(cue.ParsePath("event")), field+".event"); err == nil {
			n.Value, err = optional(body, "payload", field)
		}

	case ir.NodeEffect:
		n, err = compileEffect(body, field)

	case ir.NodeRecord:
		if n.Stack, err = name(body.LookupPath(cue.ParsePath("stack")), field+".stack"); err != nil {
			break
		}
		if n.Var, err = name(body.LookupPath(cue.ParsePath("var")), field+".var"); err != nil {
			break
		}
		n.Value, err = required(body, "value", field)

	case ir.NodeSequence:
		n.Steps, err = compileNodes(body, field)

	case ir.NodeRace, ir.NodeJoin:
		n.Branches, err = compileBranches(body, field)

	case ir.NodeRepeat:
		n, err = compileRepeat(body, field)

	default:
		return ir.PlanNode{}, &CompileError{
			Code:    ErrCodeUnknownKind,
			Field:   field,
			Message: fmt.Sprintf("unknown step kind %q", kind),
			Pos:     body.Pos(),
		}
	}
	if err != nil {
		return ir.PlanNode{}, err
	}
	return n, nil
}

func compileEffect(v cue.Value, field string) (ir.PlanNode, error) {
	n := ir.PlanNode{Kind: ir.NodeEffect}
	var err error
	if n.Duration, err = durationString(v.LookupPath(cue.ParsePath("sleep")), field+".sleep"); err != nil {
		return n, err
	}
	if n.Value, err = optional(v, "value", field); err != nil {
		return n, err
	}
	if msg := v.LookupPath(cue.ParsePath("error")); msg.Exists() {
		if n.Message, err = str(msg, field+".error"); err != nil {
			return n, err
		}
	}
	return n, nil
}

func compileBranches(v cue.Value, field string) ([][]ir.PlanNode, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err, field)
	}
	var branches [][]ir.PlanNode
	for i := 0; iter.Next(); i++ {
		b, err := compileNodes(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	if len(branches) == 0 {
		return nil, &CompileError{
			Code:    ErrCodeEmptyBranches,
			Field:   field,
			Message: "at least one branch is required",
			Pos:     v.Pos(),
		}
	}
	return branches, nil
}

func compileRepeat(v cue.Value, field string) (ir.PlanNode, error) {
	n := ir.PlanNode{Kind: ir.NodeRepeat}
	if times := v.LookupPath(cue.ParsePath("times")); times.Exists() {
		c, err := count(times, field+".times")
		if err != nil {
			return n, err
		}
		n.Count = c
	}
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return n, &CompileError{
			Code:    ErrCodeEmptyBranches,
			Field:   field + ".steps",
			Message: "repeat requires steps",
			Pos:     v.Pos(),
		}
	}
	steps, err := compileNodes(stepsVal, field+".steps")
	if err != nil {
		return n, err
	}
	if len(steps) == 0 {
		return n, &CompileError{
			Code:    ErrCodeEmptyBranches,
			Field:   field + ".steps",
			Message: "repeat requires at least one step",
			Pos:     stepsVal.Pos(),
		}
	}
	n.Steps = steps
	return n, nil
}

func str(v cue.Value, field string) (string, error) {
	s, err := v.String()
	if err != nil {
		return "", formatCUEError(err, field)
	}
	return s, nil
}

// name is a required non-empty string.
func name(v cue.Value, field string) (string, error) {
	if !v.Exists() {
		return "", &CompileError{
			Code:    ErrCodeMissingName,
			Field:   field,
			Message: "is required",
			Pos:     v.Pos(),
		}
	}
	s, err := str(v, field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &CompileError{
			Code:    ErrCodeMissingName,
			Field:   field,
			Message: "must not be empty",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func durationString(v cue.Value, field string) (string, error) {
	if !v.Exists() {
		return "", &CompileError{Code: ErrCodeBadDuration, Field: field, Message: "duration is required"}
	}
	s, err := str(v, field)
	if err != nil {
		return "", err
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return "", &CompileError{
			Code:    ErrCodeBadDuration,
			Field:   field,
			Message: fmt.Sprintf("invalid duration %q", s),
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func signedInt(v cue.Value, field string) (int64, error) {
	if !v.Exists() {
		return 0, &CompileError{Code: ErrCodeMissingName, Field: field, Message: "is required"}
	}
	if v.Kind() == cue.FloatKind {
		return 0, floatError(v, field)
	}
	i, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err, field)
	}
	return i, nil
}

// count is a non-negative integer.
func count(v cue.Value, field string) (int64, error) {
	i, err := signedInt(v, field)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, &CompileError{
			Code:    ErrCodeBadDuration,
			Field:   field,
			Message: fmt.Sprintf("must not be negative, got %d", i),
			Pos:     v.Pos(),
		}
	}
	return i, nil
}

func optionalBool(parent cue.Value, key string, def bool, field string) (bool, error) {
	v := parent.LookupPath(cue.ParsePath(key))
	if !v.Exists() {
		return def, nil
	}
	b, err := v.Bool()
	if err != nil {
		return false, formatCUEError(err, field+"."+key)
	}
	return b, nil
}

func required(parent cue.Value, key, field string) (ir.IRValue, error) {
	v := parent.LookupPath(cue.ParsePath(key))
	if !v.Exists() {
		return nil, &CompileError{
			Code:    ErrCodeMissingName,
			Field:   field + "." + key,
			Message: "is required",
			Pos:     parent.Pos(),
		}
	}
	return toIR(v, field+"."+key)
}

func optional(parent cue.Value, key, field string) (ir.IRValue, error) {
	v := parent.LookupPath(cue.ParsePath(key))
	if !v.Exists() {
		return nil, nil
	}
	return toIR(v, field+"."+key)
}
