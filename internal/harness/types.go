package harness

import (
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/plan"
)

// ReactorState is a reactor's state after the last tick.
type ReactorState struct {
	Status   string     `json:"status"`
	DoneTick int64      `json:"done_tick,omitempty"`
	Value    ir.IRValue `json:"value,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Ticks is the number of frames run.
	Ticks int64 `json:"ticks"`

	// Trace lists completed plan nodes in completion order.
	Trace []plan.Step `json:"trace"`

	// Outcomes lists reactor outcomes in sequence order.
	Outcomes []ir.Outcome `json:"outcomes"`

	// Reactors maps reactor names to their final state.
	Reactors map[string]ReactorState `json:"reactors"`

	Vars     ir.IRObject     `json:"vars"`
	Switches map[string]bool `json:"switches"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing, empty result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []plan.Step{},
		Outcomes: []ir.Outcome{},
		Reactors: make(map[string]ReactorState),
		Vars:     ir.IRObject{},
		Switches: make(map[string]bool),
		Errors:   []string{},
	}
}

// AddError records a failed assertion.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a trace step.
func (r *Result) AddStep(s plan.Step) {
	r.Trace = append(r.Trace, s)
}
