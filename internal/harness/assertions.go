package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/plan"
	"github.com/roach88/tickflow/internal/store"
)

// AssertionError is a failed assertion with enough context to debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []plan.Step
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, s := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] tick %d %s %s %s", i+1, s.Tick, s.Reactor, s.Path, s.Kind)
			if s.Err != "" {
				fmt.Fprintf(&buf, " error=%q", s.Err)
			} else {
				fmt.Fprintf(&buf, " = %s", ir.Format(s.Value))
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// AssertionContext gives assertions access to the run's store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertCompleted, AssertPending, AssertFailed, AssertCancelled:
			err = assertReactor(result, a)
		case AssertVarEquals:
			err = assertVarEquals(result, a)
		case AssertSwitchIs:
			err = assertSwitchIs(result, a)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertHistory, AssertOutcomeCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, a.Type)
				break
			}
			if a.Type == AssertHistory {
				err = assertHistory(actx.Ctx, actx.Store, a)
			} else {
				err = assertOutcomeCount(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertReactor(result *Result, a Assertion) error {
	state, ok := result.Reactors[a.Reactor]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("reactor %s", a.Reactor),
			Actual:   "no such reactor",
		}
	}
	if state.Status != a.Type {
		actual := state.Status
		if state.Error != "" {
			actual += ": " + state.Error
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("reactor %s %s", a.Reactor, a.Type),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}
	if a.AtTick != 0 && state.DoneTick != a.AtTick {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("reactor %s %s at tick %d", a.Reactor, a.Type, a.AtTick),
			Actual:   fmt.Sprintf("%s at tick %d", state.Status, state.DoneTick),
			Trace:    result.Trace,
		}
	}
	if a.ErrorContains != "" && !strings.Contains(state.Error, a.ErrorContains) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("error containing %q", a.ErrorContains),
			Actual:   fmt.Sprintf("%q", state.Error),
		}
	}
	if a.Type == AssertCompleted && a.Equals != nil {
		want, err := ir.FromAny(a.Equals)
		if err != nil {
			return fmt.Errorf("completed %s: equals: %w", a.Reactor, err)
		}
		if !ir.Equal(state.Value, want) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("reactor %s value %s", a.Reactor, ir.Format(want)),
				Actual:   ir.Format(state.Value),
			}
		}
	}
	return nil
}

func assertVarEquals(result *Result, a Assertion) error {
	want, err := ir.FromAny(a.Equals)
	if err != nil {
		return fmt.Errorf("var_equals %s: %w", a.Var, err)
	}
	got, ok := result.Vars[a.Var]
	if !ok {
		return &AssertionError{
			Type:     AssertVarEquals,
			Expected: fmt.Sprintf("%s = %s", a.Var, ir.Format(want)),
			Actual:   "var not set",
		}
	}
	if !ir.Equal(got, want) {
		return &AssertionError{
			Type:     AssertVarEquals,
			Expected: fmt.Sprintf("%s = %s", a.Var, ir.Format(want)),
			Actual:   fmt.Sprintf("%s = %s", a.Var, ir.Format(got)),
		}
	}
	return nil
}

func assertSwitchIs(result *Result, a Assertion) error {
	if got := result.Switches[a.Switch]; got != a.On {
		return &AssertionError{
			Type:     AssertSwitchIs,
			Expected: fmt.Sprintf("switch %s on=%t", a.Switch, a.On),
			Actual:   fmt.Sprintf("on=%t", got),
		}
	}
	return nil
}

// assertTraceContains checks that some step matches a.Step.
func assertTraceContains(trace []plan.Step, a Assertion) error {
	idx, err := findStep(trace, *a.Step, 0)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeMatch(*a.Step),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the steps occur in the given order. Other
// steps may come in between.
func assertTraceOrder(trace []plan.Step, a Assertion) error {
	from := 0
	for i, m := range a.Steps {
		idx, err := findStep(trace, m, from)
		if err != nil {
			return err
		}
		if idx < 0 {
			actual := "not found in trace"
			if i > 0 {
				if before, _ := findStep(trace, m, 0); before >= 0 {
					actual = fmt.Sprintf("found at position %d, before %s", before+1, describeMatch(a.Steps[i-1]))
				}
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: describeMatch(m),
				Actual:   actual,
				Trace:    trace,
			}
		}
		from = idx + 1
	}
	return nil
}

// findStep returns the index of the first step at or after from that
// matches m, or -1.
func findStep(trace []plan.Step, m TraceMatch, from int) (int, error) {
	for i := from; i < len(trace); i++ {
		ok, err := matchStep(trace[i], m)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

func matchStep(s plan.Step, m TraceMatch) (bool, error) {
	if m.Reactor != "" && s.Reactor != m.Reactor {
		return false, nil
	}
	if m.Path != "" && s.Path != m.Path {
		return false, nil
	}
	if m.Kind != "" && string(s.Kind) != m.Kind {
		return false, nil
	}
	if m.Tick != 0 && s.Tick != m.Tick {
		return false, nil
	}
	if m.Value != nil {
		want, err := ir.FromAny(m.Value)
		if err != nil {
			return false, fmt.Errorf("trace match value: %w", err)
		}
		if s.Err != "" || !ir.Equal(s.Value, want) {
			return false, nil
		}
	}
	return true, nil
}

func describeMatch(m TraceMatch) string {
	var parts []string
	if m.Reactor != "" {
		parts = append(parts, "reactor="+m.Reactor)
	}
	if m.Path != "" {
		parts = append(parts, "path="+m.Path)
	}
	if m.Kind != "" {
		parts = append(parts, "kind="+m.Kind)
	}
	if m.Tick != 0 {
		parts = append(parts, fmt.Sprintf("tick=%d", m.Tick))
	}
	if m.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", m.Value))
	}
	if len(parts) == 0 {
		return "any step"
	}
	return "step " + strings.Join(parts, " ")
}

// assertHistory reads the stack back from the store.
func assertHistory(ctx context.Context, st *store.Store, a Assertion) error {
	h, err := st.ReadHistory(ctx, a.Stack)
	if err != nil {
		return fmt.Errorf("history %s: %w", a.Stack, err)
	}
	if a.Entries != nil && !slices.Equal(h.Names(), a.Entries) {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("stack %s entries %v", a.Stack, a.Entries),
			Actual:   fmt.Sprintf("%v", h.Names()),
		}
	}
	if a.Cursor != nil && h.Cursor != *a.Cursor {
		return &AssertionError{
			Type:     AssertHistory,
			Expected: fmt.Sprintf("stack %s cursor %d", a.Stack, *a.Cursor),
			Actual:   fmt.Sprintf("cursor %d", h.Cursor),
		}
	}
	return nil
}

// assertOutcomeCount counts persisted outcomes.
func assertOutcomeCount(ctx context.Context, st *store.Store, a Assertion) error {
	outcomes, err := st.ReadOutcomes(ctx, store.OutcomeFilter{Status: ir.OutcomeStatus(a.Status)})
	if err != nil {
		return fmt.Errorf("outcome_count: %w", err)
	}
	if len(outcomes) != a.Count {
		what := "outcomes"
		if a.Status != "" {
			what = a.Status + " outcomes"
		}
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d", len(outcomes)),
		}
	}
	return nil
}
