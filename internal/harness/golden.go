package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tickflow/internal/ir"
)

// TraceSnapshot is the part of a Result compared against golden files.
// Outcome IDs are content hashes and are left out so golden files stay
// readable; the seq, status and tick already pin them down.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Result.Trace))
	for i, step := range s.Result.Trace {
		m := map[string]any{
			"tick":    step.Tick,
			"reactor": step.Reactor,
			"path":    step.Path,
			"kind":    string(step.Kind),
		}
		if step.Err != "" {
			m["error"] = step.Err
		} else {
			m["value"] = step.Value
		}
		trace[i] = m
	}

	outcomes := make([]any, len(s.Result.Outcomes))
	for i, o := range s.Result.Outcomes {
		m := map[string]any{
			"seq":     o.Seq,
			"reactor": o.ReactorID,
			"status":  string(o.Status),
			"tick":    o.Tick,
		}
		if o.Error != "" {
			m["error"] = o.Error
		}
		outcomes[i] = m
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"ticks":         s.Result.Ticks,
		"trace":         trace,
		"outcomes":      outcomes,
	}
}

// MarshalSnapshot renders the snapshot as canonical JSON.
func (s *TraceSnapshot) MarshalSnapshot() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Result: result}
	data, err := snapshot.MarshalSnapshot()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
