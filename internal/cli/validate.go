package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tickflow/internal/compiler"
)

// Problem is one load, compile or validation error in CLI output.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Plans    []string           `json:"plans"`
	Errors   []Problem          `json:"errors,omitempty"`
	Warnings []compiler.Warning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plans-dir>",
		Short: "Check plans without writing output",
		Long: `Compile every CUE plan in a directory, validate the result and lint
the plan set. Lint findings are reported but do not fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	loaded, errs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if loaded == nil {
		p := describeError(errs[0])
		return f.Fail(ExitCommandError, p.Code, p.Message, nil)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{
		Valid:    len(errs) == 0,
		Plans:    loaded.Names(),
		Warnings: compiler.Lint(loaded.Plans),
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, describeError(err))
	}

	if f.JSON() {
		if err := f.encode(validateResponse(result)); err != nil {
			return err
		}
	} else {
		printValidation(f, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func validateResponse(result ValidationResult) CLIResponse {
	if result.Valid {
		return CLIResponse{Status: "ok", Data: result}
	}
	first := result.Errors[0]
	return CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: first.Code, Message: first.Message},
	}
}

func printValidation(f *OutputFormatter, result ValidationResult) {
	if result.Valid {
		f.Printf("✓ %d plan(s) valid\n", len(result.Plans))
	} else {
		f.Printf("✗ Validation failed\n\n")
		for _, p := range result.Errors {
			if p.Line > 0 {
				f.Printf("%s:%d\n", p.File, p.Line)
			}
			f.Printf("  %s: %s\n\n", p.Code, p.Message)
		}
	}
	for _, w := range result.Warnings {
		f.Printf("  %s: plan %s: %s\n", w.Level, w.Plan, w.Message)
	}
}

// describeError flattens a compiler error into a Problem, keeping the
// source position when the compiler recorded one.
func describeError(err error) Problem {
	p := Problem{Code: compiler.ErrorCode(err), Message: err.Error()}

	var (
		le *compiler.LoadError
		ce *compiler.CompileError
		ve compiler.ValidationError
	)
	switch {
	case errors.As(err, &le):
		p.Message = le.Message
		if le.Pos.IsValid() {
			p.File, p.Line = le.Pos.Filename(), le.Pos.Line()
		}
	case errors.As(err, &ce):
		p.Message = fmt.Sprintf("%s: %s", ce.Field, ce.Message)
		if ce.Pos.IsValid() {
			p.File, p.Line = ce.Pos.Filename(), ce.Pos.Line()
		}
	case errors.As(err, &ve):
		p.Message = fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	return p
}
