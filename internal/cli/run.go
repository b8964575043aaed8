package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/config"
	"github.com/roach88/tickflow/internal/effect"
	"github.com/roach88/tickflow/internal/engine"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/plan"
	"github.com/roach88/tickflow/internal/record"
	"github.com/roach88/tickflow/internal/store"
	"github.com/roach88/tickflow/internal/telemetry"
	"github.com/roach88/tickflow/internal/world"
)

// RunOptions holds flags for the run command. Zero-valued flags that were
// not set on the command line fall back to the environment config.
type RunOptions struct {
	*RootOptions
	Plan     string
	Ticks    int64
	Delta    time.Duration
	Interval time.Duration
	Database string

	// IDs overrides the reactor ID generator (for testing).
	IDs engine.IDGenerator
}

// RunResult is the final state of a run.
type RunResult struct {
	Plan      string      `json:"plan"`
	ReactorID string      `json:"reactor_id"`
	Status    string      `json:"status"`
	Ticks     int         `json:"ticks"`
	DoneTick  int64       `json:"done_tick,omitempty"`
	Value     ir.IRValue  `json:"value,omitempty"`
	Error     string      `json:"error,omitempty"`
	Vars      ir.IRObject `json:"vars"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <plans-dir>",
		Short: "Run a plan in a headless host loop",
		Long: `Spawn one reactor for a plan and tick the engine at a fixed cadence
until the reactor finishes, the tick limit is reached or the process is
interrupted. A reactor still pending when the loop stops is cancelled.

Effects run on a goroutine per effect, or on a bounded pool when
TICKFLOW_EFFECT_WORKERS is set. With --db, record entries and reactor
outcomes are written to SQLite; otherwise they are kept in memory.

Example:
  tickflow run ./plans --plan pickup --ticks 600
  tickflow run ./plans --plan editor --db ./tickflow.db --delta 16ms --interval 0`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "name of the plan to run (required)")
	cmd.Flags().Int64Var(&opts.Ticks, "ticks", 0, "stop after this many frames (0 = until done)")
	cmd.Flags().DurationVar(&opts.Delta, "delta", 0, "simulated time per frame (0 = wall clock)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "wall-clock pause between frames")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

// settings merges flags over the environment config.
func (o *RunOptions) settings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.MaxTicks = o.Ticks
	}
	if flags.Changed("delta") {
		cfg.TickDelta = o.Delta
	}
	if flags.Changed("interval") {
		cfg.TickInterval = o.Interval
	}
	if flags.Changed("db") {
		cfg.DB = o.Database
	}
	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid flags", err)
	}
	return cfg, nil
}

func runPlan(opts *RunOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := slog.Default()

	cfg, err := opts.settings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return WrapExitError(ExitCommandError, "setup telemetry", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	loaded, errs := compiler.LoadDir(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		p := describeError(errs[0])
		return f.Fail(ExitCommandError, p.Code, p.Message, nil)
	}
	p, ok := loaded.Plan(opts.Plan)
	if !ok {
		return f.Fail(ExitCommandError, compiler.ErrCodeNotFound,
			fmt.Sprintf("plan %q not found (have %v)", opts.Plan, loaded.Names()), nil)
	}

	st, err := openStore(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	lastSeq, err := st.MaxOutcomeSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "read outcome sequence", err)
	}

	rt, closeRuntime, err := newRuntime(cfg.EffectWorkers)
	if err != nil {
		return WrapExitError(ExitCommandError, "create effect runtime", err)
	}
	defer closeRuntime()

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithOutcomeSink(st),
		engine.WithClock(engine.NewClockAt(lastSeq)),
		engine.WithMaxSteps(cfg.MaxSteps),
	}
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}
	eng := engine.New(engOpts...)

	env := &plan.Env{
		Runtime: rt,
		Stacks:  record.NewRegistry(record.WithJournal(st), record.WithLogger(logger)),
		Logger:  logger,
	}
	t, err := plan.Build(p, env, p.Name)
	if err != nil {
		return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
	}
	handle, err := engine.Spawn(eng, t, engine.WithName(p.Name))
	if err != nil {
		return WrapExitError(ExitCommandError, "spawn reactor", err)
	}

	f.VerboseLog("Running plan %s as reactor %s", p.Name, handle.ID())

	w := world.New()
	report, err := eng.Run(ctx, w, engine.RunConfig{
		Delta:     cfg.TickDelta,
		Interval:  cfg.TickInterval,
		MaxTicks:  int(cfg.MaxTicks),
		UntilIdle: true,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	if !handle.Done() {
		// Cancels the reactor's effects before the deferred runtime close
		// waits on them.
		handle.Cancel()
		eng.Flush(context.WithoutCancel(ctx))
	}

	result := RunResult{
		Plan:      p.Name,
		ReactorID: handle.ID(),
		Status:    handle.Status().String(),
		Ticks:     report.Ticks,
		Vars:      plan.WorldVars(w).Snapshot(),
	}
	if handle.Done() {
		result.DoneTick = handle.Reactor().DoneTick()
		value, rerr := handle.Result()
		result.Value = value
		if rerr != nil {
			result.Error = rerr.Error()
		}
	}

	if err := outputRun(f, result); err != nil {
		return err
	}
	if handle.Status() == engine.StatusFailed {
		return NewExitError(ExitFailure, fmt.Sprintf("plan %s failed: %s", p.Name, result.Error))
	}
	return nil
}

func outputRun(f *OutputFormatter, r RunResult) error {
	if f.JSON() {
		return f.Success(r)
	}
	switch r.Status {
	case "completed":
		f.Printf("✓ %s completed at tick %d", r.Plan, r.DoneTick)
		if r.Value != nil {
			f.Printf(" = %s", formatValue(r.Value))
		}
		f.Printf("\n")
	case "failed":
		f.Printf("✗ %s failed at tick %d: %s\n", r.Plan, r.DoneTick, r.Error)
	default:
		f.Printf("… %s %s after %d tick(s)\n", r.Plan, r.Status, r.Ticks)
	}
	for _, name := range r.Vars.SortedKeys() {
		f.Printf("  %s = %s\n", name, formatValue(r.Vars[name]))
	}
	return nil
}

// formatValue renders a value as canonical JSON.
func formatValue(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return store.OpenMemory()
	}
	return store.Open(path)
}

func newRuntime(workers int) (effect.Runtime, func(), error) {
	if workers > 0 {
		rt, err := effect.NewPoolRuntime(workers)
		if err != nil {
			return nil, nil, err
		}
		return rt, rt.Close, nil
	}
	rt := effect.NewGoRuntime()
	return rt, rt.Close, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
