package engine

import (
	"context"
	"time"

	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/world"
)

// RunConfig controls the host loop in Run.
type RunConfig struct {
	// Delta is the fixed frame time passed to World.Advance. Zero measures
	// wall-clock time between frames.
	Delta time.Duration

	// Interval paces frames. Zero ticks back to back. A completed effect
	// or a posted inbox event starts the next frame early.
	Interval time.Duration

	// MaxTicks stops the loop after that many frames. Zero is unlimited.
	MaxTicks int

	// UntilIdle stops the loop once no reactor is pending.
	UntilIdle bool
}

// RunReport summarizes a Run.
type RunReport struct {
	Ticks    int
	Outcomes []ir.Outcome
}

// Run is a headless host loop: each frame drains the inbox into w,
// advances w, and ticks the engine. It returns when ctx is done, MaxTicks
// is reached, or (with UntilIdle) the last reactor finishes.
func (e *Engine) Run(ctx context.Context, w *world.World, cfg RunConfig) (RunReport, error) {
	var report RunReport

	var frames <-chan time.Time
	if cfg.Interval > 0 {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		frames = ticker.C
	}

	e.logger.Info("host loop starting",
		"delta", cfg.Delta,
		"interval", cfg.Interval,
		"max_ticks", cfg.MaxTicks,
		"reactors", e.Len(),
	)

	last := time.Now()
	for {
		if cfg.UntilIdle && e.Len() == 0 && len(e.pending) == 0 {
			e.logger.Info("host loop stopping: idle", "ticks", report.Ticks)
			return report, nil
		}
		if cfg.MaxTicks > 0 && report.Ticks >= cfg.MaxTicks {
			e.logger.Info("host loop stopping: tick limit", "ticks", report.Ticks)
			return report, nil
		}

		if frames != nil {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-frames:
			case <-e.wake:
			case <-e.inbox.Ready():
			}
		} else if err := ctx.Err(); err != nil {
			return report, err
		}

		now := time.Now()
		delta := cfg.Delta
		if delta <= 0 {
			delta = now.Sub(last)
		}
		last = now

		e.inbox.Drain(w)
		w.Advance(delta)
		tr, err := e.Tick(ctx, w)
		report.Ticks++
		report.Outcomes = append(report.Outcomes, tr.Outcomes...)
		if err != nil {
			return report, err
		}
	}
}
