package plan

import (
	"log/slog"

	"github.com/roach88/tickflow/internal/effect"
	"github.com/roach88/tickflow/internal/ir"
	"github.com/roach88/tickflow/internal/record"
)

// Step is one completed plan node.
type Step struct {
	Tick    int64       `json:"tick"`
	Reactor string      `json:"reactor"`
	Path    string      `json:"path"`
	Kind    ir.NodeKind `json:"kind"`
	Value   ir.IRValue  `json:"value,omitempty"`
	Err     string      `json:"error,omitempty"`
}

// Env supplies what built plans need beyond the World.
type Env struct {
	// Runtime runs effect nodes. Defaults to effect.InlineRuntime.
	Runtime effect.Runtime

	// Stacks resolves record, undo and redo stack names. Defaults to a
	// fresh registry per Build.
	Stacks *record.Registry

	// Logger receives log nodes. Defaults to slog.Default().
	Logger *slog.Logger

	// Trace, if set, is called for every node that finishes.
	Trace func(Step)
}

func (e *Env) withDefaults() *Env {
	out := Env{}
	if e != nil {
		out = *e
	}
	if out.Runtime == nil {
		out.Runtime = effect.InlineRuntime{}
	}
	if out.Stacks == nil {
		out.Stacks = record.NewRegistry()
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return &out
}
