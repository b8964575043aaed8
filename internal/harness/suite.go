package harness

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path does not exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios resolves path to scenario files. A file is returned as is;
// a directory is walked for .yaml and .yml files, in lexical order.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	slices.Sort(files)
	return files, nil
}

// SuiteResult summarizes a batch of scenario runs.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Results  []ScenarioSummary `json:"results"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioSummary is one scenario's pass/fail line.
type ScenarioSummary struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Pass  bool   `json:"pass"`
	Ticks int64  `json:"ticks"`
}

// ScenarioFailure explains why a scenario failed.
type ScenarioFailure struct {
	ScenarioPath string   `json:"scenario_path"`
	Errors       []string `json:"errors"`
}

// RunSuite loads and runs each scenario file. Load and run errors count as
// failures rather than stopping the suite.
func RunSuite(ctx context.Context, paths []string, logger *slog.Logger) *SuiteResult {
	result := &SuiteResult{Results: []ScenarioSummary{}}

	for _, path := range paths {
		result.Total++

		fail := func(errs ...string) {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{ScenarioPath: path, Errors: errs})
		}

		scenario, err := LoadScenario(path)
		if err != nil {
			fail(fmt.Sprintf("load scenario: %v", err))
			result.Results = append(result.Results, ScenarioSummary{Path: path})
			continue
		}

		summary := ScenarioSummary{Name: scenario.Name, Path: path}
		run, err := RunContext(ctx, scenario, logger)
		switch {
		case err != nil:
			fail(fmt.Sprintf("run scenario: %v", err))
		case !run.Pass:
			summary.Ticks = run.Ticks
			fail(run.Errors...)
		default:
			summary.Pass = true
			summary.Ticks = run.Ticks
			result.Passed++
		}
		result.Results = append(result.Results, summary)
	}
	return result
}
