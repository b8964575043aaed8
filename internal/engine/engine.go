package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/task"
	"github.com/roach88/tickflow/internal/world"
)

// DefaultMaxSteps bounds the progress steps a reactor may take in one tick.
const DefaultMaxSteps = 1000

const tracerName = "github.com/roach88/tickflow/internal/engine"

// OutcomeSink receives every terminal reactor outcome. store.Store
// implements it.
type OutcomeSink interface {
	WriteOutcome(ctx context.Context, o ir.Outcome) error
}

// Engine ticks reactors against a World.
//
// Thread-safety model:
//   - Spawn, Tick, Remove, Run: tick goroutine only
//   - Inbox().Post and the wake function handed to effects: any goroutine
//
// Reactors are ticked in registration order. A reactor spawned during a
// tick is first ticked on the next one.
type Engine struct {
	reactors []*Reactor
	byID     map[string]*Reactor

	ids      IDGenerator
	clock    *Clock
	maxSteps int
	logger   *slog.Logger
	tracer   trace.Tracer
	sink     OutcomeSink

	inbox *Inbox
	wake  chan struct{}

	// outcomes from Remove, reported by the next Tick
	pending  []ir.Outcome
	lastTick int64
	ticking  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSteps sets the per-reactor step quota for one tick. Values of
// zero or less keep the default.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer used for tick spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithOutcomeSink persists outcomes as they happen.
func WithOutcomeSink(s OutcomeSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithIDGenerator replaces the UUIDv7 reactor ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock resumes outcome sequence numbers from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine with no reactors.
func New(opts ...Option) *Engine {
	e := &Engine{
		byID:     make(map[string]*Reactor),
		ids:      UUIDv7Generator{},
		clock:    NewClock(),
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
		inbox:    NewInbox(),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// SpawnOption configures a reactor at registration.
type SpawnOption func(*Reactor)

// WithName labels the reactor in logs and outcomes.
func WithName(name string) SpawnOption {
	return func(r *Reactor) { r.name = name }
}

// WithEntity ties the reactor to an entity. The reactor is cancelled when
// the entity is despawned and despawns it when the reactor finishes.
func WithEntity(ent world.Entity) SpawnOption {
	return func(r *Reactor) {
		r.entity = ent
		r.hasEntity = true
	}
}

// WithID uses id instead of a generated ID.
func WithID(id string) SpawnOption {
	return func(r *Reactor) { r.id = id }
}

// Spawn registers t as a new reactor.
func Spawn[T any](e *Engine, t task.Task[T], opts ...SpawnOption) (*Handle[T], error) {
	rt := &typedRoot[T]{t: t}
	r := &Reactor{root: rt, spawnedTick: e.lastTick}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = e.ids.Generate()
	}
	if r.name == "" {
		r.name = r.id
	}
	if _, dup := e.byID[r.id]; dup {
		return nil, &RuntimeError{
			Code:      ErrCodeDuplicateReactor,
			Message:   "reactor id already registered",
			ReactorID: r.id,
		}
	}

	e.reactors = append(e.reactors, r)
	e.byID[r.id] = r
	e.logger.Debug("reactor spawned", "reactor", r.id, "name", r.name)

	return &Handle[T]{e: e, r: r, root: rt}, nil
}

// TickReport summarizes one Tick.
type TickReport struct {
	Tick     int64
	Polled   int
	Outcomes []ir.Outcome
	Active   int
}

// Tick advances every active reactor once. The caller must have started
// the frame with World.Advance.
//
// Task failures and panics finish their reactor and appear in the report;
// they are not returned as errors. Tick returns an error only when the
// engine is misused.
func (e *Engine) Tick(ctx context.Context, w *world.World) (TickReport, error) {
	if e.ticking {
		return TickReport{}, &RuntimeError{Code: ErrCodeReentrantTick, Message: "tick called from inside a tick"}
	}
	if w.Borrowed() {
		return TickReport{}, &RuntimeError{Code: ErrCodeWorldBorrowed, Message: "world is already borrowed"}
	}
	e.ticking = true
	defer func() { e.ticking = false }()

	e.lastTick = w.Tick()
	ctx, span := e.tracer.Start(ctx, "tickflow.tick",
		trace.WithAttributes(attribute.Int64("tickflow.tick", e.lastTick)))
	defer span.End()

	report := TickReport{Tick: e.lastTick}
	report.Outcomes = append(report.Outcomes, e.takePending()...)

	for _, r := range slices.Clone(e.reactors) {
		if r.status.Done() {
			continue
		}
		if r.hasEntity && !w.Alive(r.entity) {
			r.root.cancel()
			report.Outcomes = append(report.Outcomes,
				e.finish(r, StatusCancelled, task.Cancelled("entity despawned")))
			continue
		}

		a, err := w.Borrow(world.Scope{Reader: &r.reader, Wake: e.signal, MaxSteps: e.maxSteps})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return report, &RuntimeError{
				Code:      ErrCodeWorldBorrowed,
				Message:   err.Error(),
				ReactorID: r.id,
			}
		}
		a.WithContext(ctx)
		report.Polled++
		done, err := r.drive(a)
		a.Release()
		if !done || r.status.Done() {
			continue
		}

		status := StatusCompleted
		if err != nil {
			status = StatusFailed
			e.traceFailure(ctx, r, err)
		}
		if r.hasEntity {
			w.Despawn(r.entity)
		}
		report.Outcomes = append(report.Outcomes, e.finish(r, status, err))
	}

	report.Outcomes = append(report.Outcomes, e.takePending()...)
	e.compact()
	report.Active = len(e.reactors)

	e.flush(ctx, report.Outcomes)
	span.SetAttributes(
		attribute.Int("tickflow.polled", report.Polled),
		attribute.Int("tickflow.outcomes", len(report.Outcomes)),
	)
	e.logger.Debug("tick complete",
		"tick", report.Tick,
		"polled", report.Polled,
		"outcomes", len(report.Outcomes),
		"active", report.Active,
	)
	return report, nil
}

// Remove cancels a pending reactor and its whole task tree. The cancelled
// outcome is reported by the next Tick. It returns false if id is unknown
// or already finished.
func (e *Engine) Remove(id string) bool {
	r, ok := e.byID[id]
	if !ok || r.status.Done() {
		return false
	}
	r.root.cancel()
	e.pending = append(e.pending, e.finish(r, StatusCancelled, task.Cancelled("reactor removed")))
	if !e.ticking {
		e.compact()
	}
	return true
}

// Flush hands the outcomes of reactors removed since the last Tick to the
// sink without polling anything. Hosts call it after removing reactors on
// shutdown, when no further Tick will run.
func (e *Engine) Flush(ctx context.Context) []ir.Outcome {
	out := e.takePending()
	e.flush(ctx, out)
	return out
}

// Reactor looks up a reactor by ID, including finished ones.
func (e *Engine) Reactor(id string) (*Reactor, bool) {
	r, ok := e.byID[id]
	return r, ok
}

// Len returns the number of pending reactors.
func (e *Engine) Len() int {
	n := 0
	for _, r := range e.reactors {
		if !r.status.Done() {
			n++
		}
	}
	return n
}

// Inbox returns the queue host goroutines use to post events.
func (e *Engine) Inbox() *Inbox { return e.inbox }

// Wakeups receives after an effect completes. Hosts that sleep between
// frames can select on it to tick early.
func (e *Engine) Wakeups() <-chan struct{} { return e.wake }

// Clock returns the outcome sequence clock.
func (e *Engine) Clock() *Clock { return e.clock }

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) finish(r *Reactor, status Status, err error) ir.Outcome {
	r.status = status
	r.err = err
	r.doneTick = e.lastTick

	seq := e.clock.Next()
	o := ir.Outcome{
		ID:        ir.OutcomeID(r.id, status.outcome(), seq),
		Seq:       seq,
		ReactorID: r.id,
		Name:      r.name,
		Status:    status.outcome(),
		Tick:      e.lastTick,
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

func (e *Engine) takePending() []ir.Outcome {
	out := e.pending
	e.pending = nil
	return out
}

func (e *Engine) compact() {
	e.reactors = slices.DeleteFunc(e.reactors, func(r *Reactor) bool {
		return r.status.Done()
	})
}

func (e *Engine) traceFailure(ctx context.Context, r *Reactor, err error) {
	_, span := e.tracer.Start(ctx, "tickflow.reactor", trace.WithAttributes(
		attribute.String("tickflow.reactor.id", r.id),
		attribute.String("tickflow.reactor.name", r.name),
	))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}

// flush logs each outcome and hands it to the sink. Sink errors are logged
// and do not fail the tick.
func (e *Engine) flush(ctx context.Context, outcomes []ir.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case ir.OutcomeFailed:
			e.logger.Warn("reactor failed", "reactor", o.ReactorID, "name", o.Name, "tick", o.Tick, "error", o.Error)
		default:
			e.logger.Debug("reactor finished", "reactor", o.ReactorID, "name", o.Name, "status", o.Status, "tick", o.Tick)
		}
		if e.sink == nil {
			continue
		}
		if err := e.sink.WriteOutcome(ctx, o); err != nil {
			e.logger.Error("write outcome", "reactor", o.ReactorID, "seq", o.Seq, "error", fmt.Errorf("outcome sink: %w", err))
		}
	}
}
