package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
	"github.com/roach88/tickflow/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // glob on the scenario file name, without extension
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenarios against their plans and check their assertions.

Each scenario runs with an in-memory store, inline effects and fixed frame
deltas, so results are reproducible. Plan paths inside a scenario are
relative to the scenario file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  tickflow test ./scenarios
  tickflow test ./scenarios --filter "undo*"
  tickflow test ./scenarios/pickup.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	files, err := harness.FindScenarios(path)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			return f.Fail(ExitCommandError, compiler.ErrCodeNotFound, nf.Error(), nil)
		}
		return f.Fail(ExitCommandError, compiler.ErrCodeScanError, err.Error(), nil)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	logger := slog.Default()
	if !opts.Verbose {
		logger = slog.New(slog.DiscardHandler)
	}
	result := harness.RunSuite(cmdContext(cmd), files, logger)

	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		printSuite(f, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

func filterScenarios(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var kept []string
	for _, file := range files {
		base := filepath.Base(file)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

func printSuite(f *OutputFormatter, result *harness.SuiteResult) {
	if result.Total == 0 {
		f.Printf("No scenarios found.\n")
		return
	}

	failures := make(map[string][]string, len(result.Failures))
	for _, fail := range result.Failures {
		failures[fail.ScenarioPath] = fail.Errors
	}

	for _, r := range result.Results {
		name := r.Name
		if name == "" {
			name = filepath.Base(r.Path)
		}
		if r.Pass {
			f.Printf("✓ %s (%d ticks)\n", name, r.Ticks)
			continue
		}
		f.Printf("✗ %s\n", name)
		for _, msg := range failures[r.Path] {
			for _, line := range strings.Split(msg, "\n") {
				f.Printf("  %s\n", line)
			}
		}
	}

	f.Printf("\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
