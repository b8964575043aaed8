package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/ir"
)

func TestCompilePlanBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		plan: pickup: {
			description: "wait, then react to input"
			steps: [
				{delay: "500ms"},
				{race: [[{event: "jump"}], [{frames: 10}]]},
				{set: {var: "score", value: 10}},
			]
		}
	`)
	require.NoError(t, v.Err())

	p, err := CompilePlan(v.LookupPath(cue.ParsePath("plan.pickup")))
	require.NoError(t, err)

	assert.Equal(t, "pickup", p.Name)
	assert.Equal(t, "wait, then react to input", p.Description)
	assert.Equal(t, []ir.PlanNode{
		{Kind: ir.NodeDelay, Duration: "500ms"},
		{Kind: ir.NodeRace, Branches: [][]ir.PlanNode{
			{{Kind: ir.NodeEvent, Event: "jump"}},
			{{Kind: ir.NodeFrames, Count: 10}},
		}},
		{Kind: ir.NodeSet, Var: "score", Value: ir.IRInt(10)},
	}, p.Steps)
}

func TestCompilePlanEveryKind(t *testing.T) {
	plans, err := CompileString(`
		plan: all: steps: [
			{frames: 0},
			{wait_var: {var: "n", equals: 3}},
			{wait_switch: {name: "door", on: false}},
			{switch: {name: "door"}},
			{add: {var: "n", by: -2}},
			{emit: {event: "ding", payload: {n: 1}}},
			{emit: {event: "bare"}},
			{log: "hello"},
			{effect: {sleep: "10ms", value: "loaded"}},
			{effect: {sleep: "0s", error: "disk"}},
			{record: {stack: "edits", var: "color", value: "red"}},
			{undo: "edits"},
			{redo: "edits"},
			{sequence: [{frames: 1}]},
			{join: [[{frames: 1}], []]},
			{repeat: {times: 3, steps: [{add: {var: "n", by: 1}}]}},
			{repeat: {steps: [{frames: 1}]}},
		]
	`, "all.cue")
	require.NoError(t, err)
	require.Len(t, plans, 1)

	assert.Equal(t, []ir.PlanNode{
		{Kind: ir.NodeFrames},
		{Kind: ir.NodeWaitVar, Var: "n", Value: ir.IRInt(3)},
		{Kind: ir.NodeWaitSwitch, Switch: "door", On: false},
		{Kind: ir.NodeSwitch, Switch: "door", On: true},
		{Kind: ir.NodeAdd, Var: "n", Count: -2},
		{Kind: ir.NodeEmit, Event: "ding", Value: ir.IRObject{"n": ir.IRInt(1)}},
		{Kind: ir.NodeEmit, Event: "bare"},
		{Kind: ir.NodeLog, Message: "hello"},
		{Kind: ir.NodeEffect, Duration: "10ms", Value: ir.IRString("loaded")},
		{Kind: ir.NodeEffect, Duration: "0s", Message: "disk"},
		{Kind: ir.NodeRecord, Stack: "edits", Var: "color", Value: ir.IRString("red")},
		{Kind: ir.NodeUndo, Stack: "edits"},
		{Kind: ir.NodeRedo, Stack: "edits"},
		{Kind: ir.NodeSequence, Steps: []ir.PlanNode{{Kind: ir.NodeFrames, Count: 1}}},
		{Kind: ir.NodeJoin, Branches: [][]ir.PlanNode{{{Kind: ir.NodeFrames, Count: 1}}, {}}},
		{Kind: ir.NodeRepeat, Count: 3, Steps: []ir.PlanNode{{Kind: ir.NodeAdd, Var: "n", Count: 1}}},
		{Kind: ir.NodeRepeat, Steps: []ir.PlanNode{{Kind: ir.NodeFrames, Count: 1}}},
	}, plans[0].Steps)
}

func TestCompilePlanValues(t *testing.T) {
	plans, err := CompileString(`
		plan: v: steps: [{set: {var: "pos", value: {x: 1, y: [true, null, "s"]}}}]
	`, "v.cue")
	require.NoError(t, err)

	assert.Equal(t, ir.IRObject{
		"x": ir.IRInt(1),
		"y": ir.IRArray{ir.IRBool(true), ir.Null, ir.IRString("s")},
	}, plans[0].Steps[0].Value)
}

func TestCompilePlanErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		field string
	}{
		{"unknown kind", `plan: p: steps: [{jump: 1}]`, ErrCodeUnknownKind, "steps[0].jump"},
		{"two kinds", `plan: p: steps: [{delay: "1s", frames: 2}]`, ErrCodeAmbiguousNode, "steps[0]"},
		{"bad duration", `plan: p: steps: [{delay: "soon"}]`, ErrCodeBadDuration, "steps[0].delay"},
		{"negative frames", `plan: p: steps: [{frames: -1}]`, ErrCodeBadDuration, "steps[0].frames"},
		{"float value", `plan: p: steps: [{set: {var: "x", value: 1.5}}]`, ErrCodeFloatValue, "steps[0].set.value"},
		{"float frames", `plan: p: steps: [{frames: 2.5}]`, ErrCodeFloatValue, "steps[0].frames"},
		{"empty race", `plan: p: steps: [{race: []}]`, ErrCodeEmptyBranches, "steps[0].race"},
		{"empty repeat", `plan: p: steps: [{repeat: {steps: []}}]`, ErrCodeEmptyBranches, "steps[0].repeat.steps"},
		{"missing var", `plan: p: steps: [{set: {value: 1}}]`, ErrCodeMissingName, "steps[0].set.var"},
		{"empty event", `plan: p: steps: [{event: ""}]`, ErrCodeMissingName, "steps[0].event"},
		{"missing steps", `plan: p: description: "nothing"`, ErrCodeMissingName, "steps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src, "bad.cue")
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err), err.Error())

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileErrorHasPosition(t *testing.T) {
	_, err := CompileString("plan: p: steps: [\n\t{jump: 1},\n]", "pos.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 2, ce.Pos.Line())
	assert.Contains(t, err.Error(), "pos.cue:2:")
}

func TestCompileStringSyntaxError(t *testing.T) {
	_, err := CompileString(`plan: p: steps: [`, "broken.cue")
	require.Error(t, err)
	assert.Equal(t, ErrCodeBuildFailed, ErrorCode(err))
}

func TestCompileStringNoPlans(t *testing.T) {
	_, err := CompileString(`other: 1`, "none.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no plans found")
}
