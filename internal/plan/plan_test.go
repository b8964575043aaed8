package plan

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/effect"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/record"
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/testutil"
	"github.com/roach88/tickflow/internal/world"
)

type fixture struct {
	t     *testing.T
	eng   *engine.Engine
	world *world.World
	env   *Env
	steps []Step
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t: t,
		eng: engine.New(
			engine.WithIDGenerator(engine.NewFixedGenerator(testutil.SequentialIDs("r", 8)...)),
			engine.WithLogger(slog.New(slog.DiscardHandler)),
		),
		world: world.New(),
	}
	f.env = &Env{
		Runtime: effect.InlineRuntime{},
		Stacks:  record.NewRegistry(),
		Logger:  slog.New(slog.DiscardHandler),
		Trace:   func(s Step) { f.steps = append(f.steps, s) },
	}
	return f
}

func (f *fixture) spawn(p ir.Plan) *engine.Handle[ir.IRValue] {
	f.t.Helper()
	tk, err := Build(p, f.env, p.Name)
	require.NoError(f.t, err)
	h, err := engine.Spawn(f.eng, tk, engine.WithName(p.Name))
	require.NoError(f.t, err)
	return h
}

func (f *fixture) tick(delta time.Duration) {
	f.t.Helper()
	f.world.Advance(delta)
	_, err := f.eng.Tick(context.Background(), f.world)
	require.NoError(f.t, err)
}

func (f *fixture) vars() *Vars { return WorldVars(f.world) }

func steps(nodes ...ir.PlanNode) ir.Plan {
	return ir.Plan{Name: "test", Steps: nodes}
}

func TestSetAddAndWaitVarInOneTick(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeSet, Var: "score", Value: ir.IRInt(1)},
		ir.PlanNode{Kind: ir.NodeAdd, Var: "score", Count: 2},
		ir.PlanNode{Kind: ir.NodeWaitVar, Var: "score", Value: ir.IRInt(3)},
	))

	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(3), v)
	assert.Equal(t, ir.IRObject{"score": ir.IRInt(3)}, f.vars().Snapshot())
}

func TestAddCreatesMissingVar(t *testing.T) {
	vars := NewVars()
	v, err := add(vars, "n", 4)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(4), v)
}

func TestAddFailsOnNonInt(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeSet, Var: "name", Value: ir.IRString("x")},
		ir.PlanNode{Kind: ir.NodeAdd, Var: "name", Count: 1},
	))

	f.tick(0)
	_, err := h.Result()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInt)
	assert.True(t, task.IsSuspendPointFailure(err))
	assert.Equal(t, engine.StatusFailed, h.Status())
	require.Len(t, f.steps, 2)
	assert.Contains(t, f.steps[1].Err, "string")
}

func TestWaitVarWaitsForHost(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeWaitVar, Var: "door", Value: ir.IRString("open")}))

	f.tick(0)
	assert.False(t, h.Done())

	f.vars().Set("door", ir.IRString("open"))
	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("open"), v)
}

func TestRaceValueAndTrace(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeSet, Var: "x", Value: ir.IRInt(1)},
		ir.PlanNode{Kind: ir.NodeRace, Branches: [][]ir.PlanNode{
			{{Kind: ir.NodeFrames, Count: 1}},
			{{Kind: ir.NodeEvent, Event: "never"}},
		}},
	))

	f.tick(0)
	assert.False(t, h.Done())
	f.tick(0)

	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"index": ir.IRInt(0), "value": ir.Null}, v)

	want := []Step{
		{Tick: 1, Reactor: "test", Path: "steps[0]", Kind: ir.NodeSet, Value: ir.IRInt(1)},
		{Tick: 2, Reactor: "test", Path: "steps[1].race[0][0]", Kind: ir.NodeFrames, Value: ir.Null},
		{Tick: 2, Reactor: "test", Path: "steps[1]", Kind: ir.NodeRace, Value: v},
	}
	assert.Equal(t, want, f.steps)
}

func TestEventPayloadFromAnotherReactor(t *testing.T) {
	f := newFixture(t)
	sender := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEmit, Event: "ping", Value: ir.IRInt(7)}))
	receiver := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEvent, Event: "ping"}))

	f.tick(0)
	assert.True(t, sender.Done())
	assert.False(t, receiver.Done(), "emitted events arrive next frame")

	f.tick(0)
	v, err := receiver.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(7), v)
}

func TestEventPayloadFromHost(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEvent, Event: "jump"}))

	f.world.Send("jump", map[string]any{"height": 3})
	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"height": ir.IRInt(3)}, v)
}

func TestEventPayloadRejectsFloat(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEvent, Event: "jump"}))

	f.world.Send("jump", 1.5)
	f.tick(0)
	_, err := h.Result()
	require.Error(t, err)
	assert.True(t, task.IsSuspendPointFailure(err))
}

func TestJoinCollectsInOrder(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeJoin, Branches: [][]ir.PlanNode{
		{{Kind: ir.NodeFrames, Count: 2}, {Kind: ir.NodeSet, Var: "a", Value: ir.IRString("slow")}},
		{{Kind: ir.NodeSet, Var: "b", Value: ir.IRString("fast")}},
	}}))

	f.tick(0)
	f.tick(0)
	assert.False(t, h.Done())
	f.tick(0)

	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRArray{ir.IRString("slow"), ir.IRString("fast")}, v)
}

func TestRepeatRebuildsBody(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeRepeat, Count: 3, Steps: []ir.PlanNode{
		{Kind: ir.NodeAdd, Var: "n", Count: 2},
	}}))

	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(6), v)

	var adds int
	for _, s := range f.steps {
		if s.Kind == ir.NodeAdd {
			adds++
			assert.Equal(t, "steps[0].repeat[0]", s.Path)
		}
	}
	assert.Equal(t, 3, adds)
}

func TestRepeatForeverYieldsEachTick(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(ir.PlanNode{Kind: ir.NodeRepeat, Steps: []ir.PlanNode{
		{Kind: ir.NodeFrames, Count: 1},
		{Kind: ir.NodeAdd, Var: "n", Count: 1},
	}}))

	for range 4 {
		f.tick(0)
	}
	assert.False(t, h.Done())
	n, _ := f.vars().Get("n")
	assert.Equal(t, ir.IRInt(3), n)
}

func TestRecordUndoRedo(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeRecord, Stack: "edits", Var: "hp", Value: ir.IRInt(5)},
		ir.PlanNode{Kind: ir.NodeRecord, Stack: "edits", Var: "hp", Value: ir.IRInt(7)},
		ir.PlanNode{Kind: ir.NodeUndo, Stack: "edits"},
	))

	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), v)
	hp, _ := f.vars().Get("hp")
	assert.Equal(t, ir.IRInt(5), hp)

	stack, ok := f.env.Stacks.Lookup("edits")
	require.True(t, ok)
	assert.Equal(t, []string{"set hp"}, stack.Undoable())
	assert.Equal(t, []string{"set hp"}, stack.Redoable())

	h = f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeUndo, Stack: "edits"},
		ir.PlanNode{Kind: ir.NodeUndo, Stack: "edits"},
	))
	f.tick(0)
	v, err = h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(false), v, "nothing left to undo")
	_, ok = f.vars().Get("hp")
	assert.False(t, ok, "undoing the first record removes the var")

	h = f.spawn(steps(ir.PlanNode{Kind: ir.NodeRedo, Stack: "edits"}))
	f.tick(0)
	_, err = h.Result()
	require.NoError(t, err)
	hp, _ = f.vars().Get("hp")
	assert.Equal(t, ir.IRInt(5), hp)
}

func TestEffectNode(t *testing.T) {
	f := newFixture(t)
	ok := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEffect, Duration: "0s", Value: ir.IRString("loaded")}))
	bad := f.spawn(steps(ir.PlanNode{Kind: ir.NodeEffect, Duration: "0s", Message: "disk full"}))

	f.tick(0)
	v, err := ok.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("loaded"), v)

	_, err = bad.Result()
	require.Error(t, err)
	assert.True(t, task.IsEffectFailure(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestSwitchNodes(t *testing.T) {
	f := newFixture(t)
	waiter := f.spawn(steps(ir.PlanNode{Kind: ir.NodeWaitSwitch, Switch: "lever", On: true}))
	f.spawn(steps(
		ir.PlanNode{Kind: ir.NodeFrames, Count: 1},
		ir.PlanNode{Kind: ir.NodeSwitch, Switch: "lever", On: true},
	))

	f.tick(0)
	assert.False(t, waiter.Done())
	f.tick(0)
	f.tick(0)
	v, err := waiter.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), v)
	assert.True(t, f.world.Switch("lever"))
}

func TestLogNode(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t)
	f.env.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	p := steps(ir.PlanNode{Kind: ir.NodeLog, Message: "hello there"})
	p.Name = "greet"
	h := f.spawn(p)

	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("hello there"), v)
	assert.Contains(t, buf.String(), "hello there")
	assert.Contains(t, buf.String(), "plan=greet")
}

func TestEmptyPlanCompletesWithNull(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(steps())
	f.tick(0)
	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.Null, v)
}

func TestBuildRejectsBadNodes(t *testing.T) {
	tests := []struct {
		name string
		node ir.PlanNode
		path string
	}{
		{"bad duration", ir.PlanNode{Kind: ir.NodeDelay, Duration: "soon"}, "steps[0]"},
		{"negative frames", ir.PlanNode{Kind: ir.NodeFrames, Count: -1}, "steps[0]"},
		{"unknown kind", ir.PlanNode{Kind: "teleport"}, "steps[0]"},
		{"empty race", ir.PlanNode{Kind: ir.NodeRace}, "steps[0].race"},
		{"nested", ir.PlanNode{Kind: ir.NodeSequence, Steps: []ir.PlanNode{
			{Kind: ir.NodeFrames, Count: 1},
			{Kind: ir.NodeEffect, Duration: "-1s"},
		}}, "steps[0].sequence[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(steps(tt.node), nil, "r")
			require.Error(t, err)
			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.path, be.Path)
		})
	}
}

func TestCompiledPlanRuns(t *testing.T) {
	plans, err := compiler.CompileString(`
plan: pickup: {
	description: "wait, then react to input"
	steps: [
		{delay: "500ms"},
		{race: [[{event: "jump"}], [{frames: 10}]]},
		{set: {var: "score", value: 10}},
	]
}
`, "pickup.cue")
	require.NoError(t, err)
	require.Len(t, plans, 1)

	f := newFixture(t)
	h := f.spawn(plans[0])

	for range 3 {
		f.tick(250 * time.Millisecond)
	}
	assert.False(t, h.Done())

	f.world.Send("jump", nil)
	f.tick(250 * time.Millisecond)

	v, err := h.Result()
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(10), v)

	var race Step
	for _, s := range f.steps {
		if s.Kind == ir.NodeRace {
			race = s
		}
	}
	assert.Equal(t, int64(4), race.Tick)
	assert.Equal(t, ir.IRObject{"index": ir.IRInt(0), "value": ir.Null}, race.Value)
}
