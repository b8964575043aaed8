package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/effect"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/plan"
	"github.com/roach88/tickflow/internal/record"
	"github.com/roach88/tickflow/internal/store"
	"github.com/roach88/tickflow/internal/world"
)

// Harness holds one scenario run.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	world   *world.World
	env     *plan.Env
	handles map[string]*engine.Handle[ir.IRValue]
	order   []string
	logger  *slog.Logger
	result  *Result
}

// Run executes a scenario with logging discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext executes a scenario.
//
// Each run gets a fresh in-memory store, an inline effect runtime and a
// counter-based outcome clock, so the same scenario always produces the
// same trace. Errors are returned for scenarios that cannot run at all;
// failed assertions are reported in the Result.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("create in-memory store: %w", err)
	}
	defer st.Close()

	plans, err := loadPlans(scenario.Plans)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:   st,
		world:   world.New(),
		handles: make(map[string]*engine.Handle[ir.IRValue]),
		logger:  logger,
		result:  NewResult(),
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithOutcomeSink(st),
		engine.WithIDGenerator(engine.NewCounterGenerator("reactor")),
		engine.WithClock(engine.NewClock()),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	h.engine = engine.New(opts...)

	h.env = &plan.Env{
		Runtime: effect.InlineRuntime{},
		Stacks:  record.NewRegistry(record.WithJournal(st), record.WithLogger(logger)),
		Logger:  logger,
		Trace:   h.result.AddStep,
	}

	if err := h.spawn(scenario.Reactors, plans); err != nil {
		return nil, err
	}
	if err := h.runTicks(ctx, scenario.Ticks); err != nil {
		return nil, err
	}

	h.snapshot()

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	logger.Info("scenario finished",
		"scenario", scenario.Name,
		"ticks", h.result.Ticks,
		"pass", h.result.Pass,
	)
	return h.result, nil
}

func loadPlans(files []string) (map[string]ir.Plan, error) {
	plans := make(map[string]ir.Plan)
	for _, f := range files {
		loaded, err := compiler.LoadFile(f)
		if err != nil {
			return nil, fmt.Errorf("load plans: %w", err)
		}
		for _, p := range loaded {
			if _, dup := plans[p.Name]; dup {
				return nil, fmt.Errorf("load plans: plan %q defined more than once", p.Name)
			}
			plans[p.Name] = p
		}
	}
	return plans, nil
}

func (h *Harness) spawn(reactors []ReactorSpec, plans map[string]ir.Plan) error {
	for i, rs := range reactors {
		p, ok := plans[rs.Plan]
		if !ok {
			return fmt.Errorf("reactors[%d]: unknown plan %q", i, rs.Plan)
		}
		id := rs.ID()
		t, err := plan.Build(p, h.env, id)
		if err != nil {
			return fmt.Errorf("reactors[%d]: %w", i, err)
		}
		handle, err := engine.Spawn(h.engine, t, engine.WithID(id), engine.WithName(p.Name))
		if err != nil {
			return fmt.Errorf("reactors[%d]: %w", i, err)
		}
		h.handles[id] = handle
		h.order = append(h.order, id)
	}
	return nil
}

func (h *Harness) runTicks(ctx context.Context, ticks []TickStep) error {
	for i, step := range ticks {
		delta, err := step.Duration()
		if err != nil {
			return fmt.Errorf("ticks[%d]: %w", i, err)
		}
		for frame := range step.Frames() {
			if frame == 0 {
				for _, name := range step.Cancel {
					h.handles[name].Cancel()
				}
				if err := h.sendEvents(step.Events); err != nil {
					return fmt.Errorf("ticks[%d]: %w", i, err)
				}
			}
			h.world.Advance(delta)
			if frame == 0 {
				if err := h.applyState(step); err != nil {
					return fmt.Errorf("ticks[%d]: %w", i, err)
				}
			}
			report, err := h.engine.Tick(ctx, h.world)
			if err != nil {
				return fmt.Errorf("ticks[%d]: tick %d: %w", i, h.world.Tick(), err)
			}
			h.result.Outcomes = append(h.result.Outcomes, report.Outcomes...)
			h.result.Ticks++
		}
	}
	return nil
}

// sendEvents queues events so they are readable in the next frame.
func (h *Harness) sendEvents(events []EventStep) error {
	for j, ev := range events {
		payload, err := ir.FromAny(ev.Payload)
		if err != nil {
			return fmt.Errorf("events[%d]: payload: %w", j, err)
		}
		h.world.Send(ev.Kind, payload)
	}
	return nil
}

// applyState sets switches and vars after Advance, so switch changes are
// seen as happening in the frame about to run.
func (h *Harness) applyState(step TickStep) error {
	for name, on := range step.Switches {
		h.world.SetSwitch(name, on)
	}
	if len(step.Vars) == 0 {
		return nil
	}
	vars := plan.WorldVars(h.world)
	for name, raw := range step.Vars {
		v, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Errorf("var %s: %w", name, err)
		}
		vars.Set(name, v)
	}
	return nil
}

func (h *Harness) snapshot() {
	for _, id := range h.order {
		handle := h.handles[id]
		state := ReactorState{Status: handle.Status().String()}
		if handle.Done() {
			state.DoneTick = handle.Reactor().DoneTick()
			v, err := handle.Result()
			if err != nil {
				state.Error = err.Error()
			} else {
				state.Value = v
			}
		}
		h.result.Reactors[id] = state
	}
	h.result.Vars = plan.WorldVars(h.world).Snapshot()
	h.result.Switches = h.world.Switches()
}
