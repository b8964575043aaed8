package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled plans.
type CompilationResult struct {
	Plans []ir.Plan `json:"plans"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <plans-dir>",
		Short: "Compile CUE plans to canonical JSON",
		Long: `Compile every CUE plan in a directory to its IR form.

With --output the plans are written as RFC 8785 canonical JSON, so the file
is byte-stable across runs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	loaded, errs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if loaded == nil {
		p := describeError(errs[0])
		return f.Fail(ExitCommandError, p.Code, p.Message, nil)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	if len(errs) > 0 {
		problems := make([]Problem, len(errs))
		for i, err := range errs {
			problems[i] = describeError(err)
		}
		if !f.JSON() {
			for _, p := range problems {
				f.Printf("Error [%s]: %s\n", p.Code, p.Message)
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
		}
		return f.Fail(ExitCommandError, problems[0].Code, problems[0].Message, problems)
	}

	for _, p := range loaded.Plans {
		f.VerboseLog("Compiled plan: %s", p.Name)
	}

	if opts.Output != "" {
		if err := writePlans(loaded.Plans, opts.Output); err != nil {
			return f.Fail(ExitCommandError, compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if f.JSON() {
		return f.Success(CompilationResult{Plans: loaded.Plans})
	}

	f.Printf("✓ Compiled %d plan(s)\n\n", len(loaded.Plans))
	for _, p := range loaded.Plans {
		f.Printf("  %s: %d step(s)", p.Name, len(p.Steps))
		if p.Description != "" {
			f.Printf(" - %s", p.Description)
		}
		f.Printf("\n")
	}
	if opts.Output != "" {
		f.Printf("\nWrote canonical IR to %s\n", opts.Output)
	}
	return nil
}

// writePlans writes {"plans": [...]} as canonical JSON.
func writePlans(plans []ir.Plan, path string) error {
	arr := make(ir.IRArray, len(plans))
	for i, p := range plans {
		arr[i] = p.ToValue()
	}
	data, err := ir.MarshalCanonical(ir.IRObject{"plans": arr})
	if err != nil {
		return fmt.Errorf("marshal plans: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
