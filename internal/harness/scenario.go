package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDelta is the frame delta used when a tick step does not set one.
const DefaultDelta = 16 * time.Millisecond

// Scenario is a scripted run: plans to load, reactors to spawn, a tick
// script to drive them and assertions about where they end up.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Plans lists CUE files to compile. Relative paths resolve against the
	// scenario file's directory.
	Plans []string `yaml:"plans"`

	// Reactors are spawned in order before the first tick.
	Reactors []ReactorSpec `yaml:"reactors"`

	// Ticks is the tick script.
	Ticks []TickStep `yaml:"ticks"`

	// Assertions are checked after the last tick.
	Assertions []Assertion `yaml:"assertions"`

	// MaxSteps overrides the engine's per-reactor step quota.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// ReactorSpec spawns one reactor running a plan.
type ReactorSpec struct {
	Plan string `yaml:"plan"`

	// Name is the reactor's ID and trace label. It defaults to the plan
	// name and must be unique within the scenario.
	Name string `yaml:"name,omitempty"`
}

// ID returns the reactor's effective name.
func (r ReactorSpec) ID() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Plan
}

// TickStep is one or more frames with the same delta. Inputs apply to the
// first frame only: events are sent before it starts, switches and vars are
// set once it has started.
type TickStep struct {
	// Delta is a Go duration string. Empty means DefaultDelta.
	Delta string `yaml:"delta,omitempty"`

	// Repeat runs the step this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`

	Events   []EventStep     `yaml:"events,omitempty"`
	Switches map[string]bool `yaml:"switches,omitempty"`
	Vars     map[string]any  `yaml:"vars,omitempty"`

	// Cancel removes the named reactors before the first frame.
	Cancel []string `yaml:"cancel,omitempty"`
}

// Frames returns how many frames the step runs.
func (s TickStep) Frames() int {
	return max(s.Repeat, 1)
}

// Duration parses Delta.
func (s TickStep) Duration() (time.Duration, error) {
	if s.Delta == "" {
		return DefaultDelta, nil
	}
	d, err := time.ParseDuration(s.Delta)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative delta %s", s.Delta)
	}
	return d, nil
}

// EventStep is a host event sent before a frame.
type EventStep struct {
	Kind    string `yaml:"kind"`
	Payload any    `yaml:"payload,omitempty"`
}

// TraceMatch selects trace steps. Empty fields match anything.
type TraceMatch struct {
	Reactor string `yaml:"reactor,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Tick    int64  `yaml:"tick,omitempty"`
	Value   any    `yaml:"value,omitempty"`
}

// Assertion checks the state after the last tick. Which fields apply
// depends on Type.
type Assertion struct {
	Type string `yaml:"type"`

	// Reactor is used by completed, pending, failed and cancelled.
	Reactor string `yaml:"reactor,omitempty"`

	// AtTick pins the tick a completed reactor finished on.
	AtTick int64 `yaml:"at_tick,omitempty"`

	// ErrorContains is a substring of a failed reactor's error.
	ErrorContains string `yaml:"error_contains,omitempty"`

	// Var and Equals are used by var_equals. Equals also checks a
	// completed reactor's value when set.
	Var    string `yaml:"var,omitempty"`
	Equals any    `yaml:"equals,omitempty"`

	// Switch and On are used by switch_is.
	Switch string `yaml:"switch,omitempty"`
	On     bool   `yaml:"on,omitempty"`

	// Step is used by trace_contains, Steps by trace_order.
	Step  *TraceMatch  `yaml:"step,omitempty"`
	Steps []TraceMatch `yaml:"steps,omitempty"`

	// Stack, Entries and Cursor are used by history.
	Stack   string   `yaml:"stack,omitempty"`
	Entries []string `yaml:"entries,omitempty"`
	Cursor  *int     `yaml:"cursor,omitempty"`

	// Count and Status are used by outcome_count. An empty Status counts
	// every outcome.
	Count  int    `yaml:"count,omitempty"`
	Status string `yaml:"status,omitempty"`
}

// Assertion types.
const (
	AssertCompleted     = "completed"
	AssertPending       = "pending"
	AssertFailed        = "failed"
	AssertCancelled     = "cancelled"
	AssertVarEquals     = "var_equals"
	AssertSwitchIs      = "switch_is"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertHistory       = "history"
	AssertOutcomeCount  = "outcome_count"
)

// LoadScenario reads a scenario file. Plan paths are resolved against the
// file's directory. Unknown YAML fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with plan paths resolved against
// basePath instead.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, p := range scenario.Plans {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Plans[i] = filepath.Join(basePath, p)
		}
	}
	for _, p := range scenario.Plans {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: plan file not found: %s", p)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. Plan paths are left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Plans) == 0 {
		return fmt.Errorf("plans list is required and must be non-empty")
	}
	if len(s.Reactors) == 0 {
		return fmt.Errorf("reactors list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Reactors))
	for i, r := range s.Reactors {
		if r.Plan == "" {
			return fmt.Errorf("reactors[%d]: plan is required", i)
		}
		if seen[r.ID()] {
			return fmt.Errorf("reactors[%d]: duplicate reactor name %q", i, r.ID())
		}
		seen[r.ID()] = true
	}

	for i, step := range s.Ticks {
		if _, err := step.Duration(); err != nil {
			return fmt.Errorf("ticks[%d]: delta: %w", i, err)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("ticks[%d]: repeat must be non-negative", i)
		}
		for j, ev := range step.Events {
			if ev.Kind == "" {
				return fmt.Errorf("ticks[%d].events[%d]: kind is required", i, j)
			}
		}
		for _, name := range step.Cancel {
			if !seen[name] {
				return fmt.Errorf("ticks[%d]: cancel: unknown reactor %q", i, name)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion, reactors map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCompleted, AssertPending, AssertFailed, AssertCancelled:
		if a.Reactor == "" {
			return fmt.Errorf("assertions[%d]: reactor is required for %s", index, a.Type)
		}
		if !reactors[a.Reactor] {
			return fmt.Errorf("assertions[%d]: unknown reactor %q", index, a.Reactor)
		}
	case AssertVarEquals:
		if a.Var == "" {
			return fmt.Errorf("assertions[%d]: var is required for var_equals", index)
		}
	case AssertSwitchIs:
		if a.Switch == "" {
			return fmt.Errorf("assertions[%d]: switch is required for switch_is", index)
		}
	case AssertTraceContains:
		if a.Step == nil {
			return fmt.Errorf("assertions[%d]: step is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: at least two steps are required for trace_order", index)
		}
	case AssertHistory:
		if a.Stack == "" {
			return fmt.Errorf("assertions[%d]: stack is required for history", index)
		}
	case AssertOutcomeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
