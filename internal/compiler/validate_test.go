package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tickflow/internal/ir"
)

func TestValidateValidPlan(t *testing.T) {
	p := &ir.Plan{Name: "ok", Steps: []ir.PlanNode{
		{Kind: ir.NodeDelay, Duration: "1s"},
		{Kind: ir.NodeRace, Branches: [][]ir.PlanNode{{{Kind: ir.NodeEvent, Event: "go"}}}},
	}}
	assert.Empty(t, Validate(p))
}

func TestValidateCollectsAllErrors(t *testing.T) {
	p := &ir.Plan{Steps: []ir.PlanNode{
		{Kind: "teleport"},
		{Kind: ir.NodeDelay, Duration: "-1s"},
		{Kind: ir.NodeJoin},
		{Kind: ir.NodeSequence, Steps: []ir.PlanNode{{Kind: ir.NodeRecord, Var: "x"}}},
		{Kind: ir.NodeRepeat, Count: -1},
	}}

	errs := Validate(p)
	var got []string
	for _, e := range errs {
		got = append(got, e.Code+" "+e.Field)
	}
	assert.Equal(t, []string{
		"E106 name",
		"E101 steps[0].kind",
		"E103 steps[1].duration",
		"E105 steps[2].branches",
		"E106 steps[3].steps[0].stack",
		"E103 steps[4].count",
		"E105 steps[4].steps",
	}, got)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "steps[0]", Message: "bad", Code: ErrCodeUnknownKind}
	assert.Equal(t, "[E101] steps[0]: bad", err.Error())
	assert.Equal(t, ErrCodeUnknownKind, ErrorCode(err))
}
