package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tickflow/internal/effect"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/record"
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

// ErrNotInt is returned by an add node whose variable holds a non-int.
var ErrNotInt = errors.New("variable is not an int")

// BuildError reports a node that cannot be turned into a task.
type BuildError struct {
	Path    string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

type factory func() task.Task[ir.IRValue]

type builder struct {
	env     *Env
	plan    string
	reactor string
}

// Build turns p into a task whose value is the value of its last step.
// reactor labels trace steps and log lines. Nodes are checked up front, so
// a returned task never fails for structural reasons.
//
// Repeat bodies are rebuilt for every iteration; no state carries over.
func Build(p ir.Plan, env *Env, reactor string) (task.Task[ir.IRValue], error) {
	b := &builder{env: env.withDefaults(), plan: p.Name, reactor: reactor}
	f, err := b.sequence("steps", p.Steps)
	if err != nil {
		return nil, fmt.Errorf("build plan %s: %w", p.Name, err)
	}
	return f(), nil
}

func (b *builder) sequence(path string, nodes []ir.PlanNode) (factory, error) {
	steps, err := b.list(path, nodes)
	if err != nil {
		return nil, err
	}
	return func() task.Task[ir.IRValue] {
		if len(steps) == 0 {
			return task.Done(ir.Null)
		}
		return task.Sequence(instantiate(steps)...)
	}, nil
}

func (b *builder) list(path string, nodes []ir.PlanNode) ([]factory, error) {
	out := make([]factory, len(nodes))
	for i, n := range nodes {
		f, err := b.node(fmt.Sprintf("%s[%d]", path, i), n)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (b *builder) branches(path string, branches [][]ir.PlanNode) ([]factory, error) {
	if len(branches) == 0 {
		return nil, &BuildError{Path: path, Message: "no branches"}
	}
	out := make([]factory, len(branches))
	for i, br := range branches {
		f, err := b.sequence(fmt.Sprintf("%s[%d]", path, i), br)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func instantiate(fs []factory) []task.Task[ir.IRValue] {
	ts := make([]task.Task[ir.IRValue], len(fs))
	for i, f := range fs {
		ts[i] = f()
	}
	return ts
}

func (b *builder) node(path string, n ir.PlanNode) (factory, error) {
	f, err := b.kind(path, n)
	if err != nil {
		return nil, err
	}
	if b.env.Trace == nil {
		return f, nil
	}
	return func() task.Task[ir.IRValue] {
		return &traced{inner: f(), b: b, path: path, kind: n.Kind}
	}, nil
}

func (b *builder) kind(path string, n ir.PlanNode) (factory, error) {
	switch n.Kind {
	case ir.NodeDelay:
		d, err := duration(path, n.Duration)
		if err != nil {
			return nil, err
		}
		return func() task.Task[ir.IRValue] {
			return null(task.Delay(d))
		}, nil

	case ir.NodeFrames:
		if n.Count < 0 {
			return nil, &BuildError{Path: path, Message: "frame count must not be negative"}
		}
		return func() task.Task[ir.IRValue] {
			return null(task.Frames(int(n.Count)))
		}, nil

	case ir.NodeEvent:
		return func() task.Task[ir.IRValue] {
			return task.Then(task.Event(n.Event), payloadOf)
		}, nil

	case ir.NodeWaitVar:
		want := valueOrNull(n.Value)
		return func() task.Task[ir.IRValue] {
			return task.Map(task.Until(func(a *world.Access) bool {
				got, ok := VarsOf(a).Get(n.Var)
				return ok && ir.Equal(got, want)
			}), func(struct{}) ir.IRValue { return want })
		}, nil

	case ir.NodeWaitSwitch:
		return func() task.Task[ir.IRValue] {
			return constant(task.WaitSwitch(n.Switch, n.On), ir.IRBool(n.On))
		}, nil

	case ir.NodeSwitch:
		return func() task.Task[ir.IRValue] {
			if n.On {
				return constant(task.SwitchOn(n.Switch), ir.IRBool(true))
			}
			return constant(task.SwitchOff(n.Switch), ir.IRBool(false))
		}, nil

	case ir.NodeSet:
		val := valueOrNull(n.Value)
		return func() task.Task[ir.IRValue] {
			return task.Once(func(a *world.Access) ir.IRValue {
				VarsOf(a).Set(n.Var, val)
				return val
			})
		}, nil

	case ir.NodeAdd:
		return func() task.Task[ir.IRValue] {
			return task.OnceErr(func(a *world.Access) (ir.IRValue, error) {
				return add(VarsOf(a), n.Var, n.Count)
			})
		}, nil

	case ir.NodeEmit:
		return func() task.Task[ir.IRValue] {
			return task.Once(func(a *world.Access) ir.IRValue {
				a.Send(n.Event, n.Value)
				return valueOrNull(n.Value)
			})
		}, nil

	case ir.NodeLog:
		return func() task.Task[ir.IRValue] {
			return task.Once(func(a *world.Access) ir.IRValue {
				b.env.Logger.Info(n.Message, "plan", b.plan, "reactor", b.reactor, "tick", a.Tick())
				return ir.IRString(n.Message)
			})
		}, nil

	case ir.NodeEffect:
		return b.effect(path, n)

	case ir.NodeRecord:
		stack := b.env.Stacks.Stack(n.Stack)
		return func() task.Task[ir.IRValue] {
			return constant(record.DoTask(stack, assignment(n.Var, valueOrNull(n.Value))), valueOrNull(n.Value))
		}, nil

	case ir.NodeUndo:
		stack := b.env.Stacks.Stack(n.Stack)
		return func() task.Task[ir.IRValue] {
			return boolean(record.UndoTask(stack))
		}, nil

	case ir.NodeRedo:
		stack := b.env.Stacks.Stack(n.Stack)
		return func() task.Task[ir.IRValue] {
			return boolean(record.RedoTask(stack))
		}, nil

	case ir.NodeSequence:
		return b.sequence(path+".sequence", n.Steps)

	case ir.NodeRace:
		children, err := b.branches(path+".race", n.Branches)
		if err != nil {
			return nil, err
		}
		return func() task.Task[ir.IRValue] {
			return task.Map(task.Race(instantiate(children)...), func(r task.Raced[ir.IRValue]) ir.IRValue {
				return ir.IRObject{"index": ir.IRInt(r.Index), "value": valueOrNull(r.Value)}
			})
		}, nil

	case ir.NodeJoin:
		children, err := b.branches(path+".join", n.Branches)
		if err != nil {
			return nil, err
		}
		return func() task.Task[ir.IRValue] {
			return task.Map(task.Join(instantiate(children)...), func(vs []ir.IRValue) ir.IRValue {
				arr := make(ir.IRArray, len(vs))
				for i, v := range vs {
					arr[i] = valueOrNull(v)
				}
				return arr
			})
		}, nil

	case ir.NodeRepeat:
		if n.Count < 0 {
			return nil, &BuildError{Path: path, Message: "repeat count must not be negative"}
		}
		body, err := b.sequence(path+".repeat", n.Steps)
		if err != nil {
			return nil, err
		}
		return func() task.Task[ir.IRValue] {
			if n.Count == 0 {
				return task.Repeat(body)
			}
			return task.RepeatN(int(n.Count), body)
		}, nil

	default:
		return nil, &BuildError{Path: path, Message: fmt.Sprintf("unknown node kind %q", n.Kind)}
	}
}

// effect sleeps off the tick goroutine, then yields the node's value or
// fails with its message.
func (b *builder) effect(path string, n ir.PlanNode) (factory, error) {
	d, err := duration(path, n.Duration)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s %s", b.plan, path)
	val := valueOrNull(n.Value)
	msg := n.Message
	return func() task.Task[ir.IRValue] {
		return effect.Await(b.env.Runtime, name, func(ctx context.Context) (ir.IRValue, error) {
			if err := effect.Wait(ctx, d); err != nil {
				return nil, err
			}
			if msg != "" {
				return nil, errors.New(msg)
			}
			return val, nil
		})
	}, nil
}

// assignment is an undoable set of one variable. The previous value is
// captured the first time the entry is applied.
func assignment(name string, val ir.IRValue) record.Entry {
	var (
		prev     ir.IRValue
		had      bool
		captured bool
	)
	return record.Entry{
		Name:    "set " + name,
		Payload: ir.IRObject{"var": ir.IRString(name), "value": val},
		Redo: func(a *world.Access) error {
			vars := VarsOf(a)
			if !captured {
				prev, had = vars.Get(name)
				captured = true
			}
			vars.Set(name, val)
			return nil
		},
		Undo: func(a *world.Access) error {
			vars := VarsOf(a)
			if had {
				vars.Set(name, prev)
			} else {
				vars.Delete(name)
			}
			return nil
		},
	}
}

func add(vars *Vars, name string, by int64) (ir.IRValue, error) {
	var cur ir.IRInt
	if v, ok := vars.Get(name); ok {
		n, isInt := v.(ir.IRInt)
		if !isInt {
			return nil, fmt.Errorf("add %s: %w (got %s)", name, ErrNotInt, ir.KindOf(v))
		}
		cur = n
	}
	next := cur + ir.IRInt(by)
	vars.Set(name, next)
	return next, nil
}

func payloadOf(ev world.Event) task.Task[ir.IRValue] {
	v, err := ir.FromAny(ev.Payload)
	if err != nil {
		return task.Fail[ir.IRValue](task.SuspendPointFailure(fmt.Errorf("event %s payload: %w", ev.Kind, err)))
	}
	return task.Done(v)
}

func duration(path, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &BuildError{Path: path, Message: err.Error()}
	}
	if d < 0 {
		return 0, &BuildError{Path: path, Message: "duration must not be negative"}
	}
	return d, nil
}

func valueOrNull(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.Null
	}
	return v
}

func null(t task.Task[struct{}]) task.Task[ir.IRValue] {
	return constant(t, ir.Null)
}

func constant(t task.Task[struct{}], v ir.IRValue) task.Task[ir.IRValue] {
	return task.Map(t, func(struct{}) ir.IRValue { return v })
}

func boolean(t task.Task[bool]) task.Task[ir.IRValue] {
	return task.Map(t, func(ok bool) ir.IRValue { return ir.IRBool(ok) })
}

// traced reports the node to Env.Trace once it finishes.
type traced struct {
	inner task.Task[ir.IRValue]
	b     *builder
	path  string
	kind  ir.NodeKind
	done  bool
}

func (t *traced) Poll(a *world.Access) task.Poll[ir.IRValue] {
	p := t.inner.Poll(a)
	if p.IsReady() && !t.done {
		t.done = true
		step := Step{
			Tick:    a.Tick(),
			Reactor: t.b.reactor,
			Path:    t.path,
			Kind:    t.kind,
			Value:   p.Value(),
		}
		if err := p.Err(); err != nil {
			step.Err = err.Error()
			step.Value = nil
		}
		t.b.env.Trace(step)
	}
	return p
}

func (t *traced) Cancel() { t.inner.Cancel() }
