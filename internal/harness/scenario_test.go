package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
plans: [plans.cue]
reactors:
  - plan: p
assertions:
  - type: completed
    reactor: p
`

func TestParseScenarioMinimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, []string{"plans.cue"}, s.Plans)
	assert.Equal(t, "p", s.Reactors[0].ID())
	assert.Empty(t, s.Ticks)
}

func TestParseScenarioRejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `{plans: [a.cue], reactors: [{plan: p}], assertions: [{type: pending, reactor: p}]}`,
			want: "name is required",
		},
		{
			name: "no plans",
			yaml: `{name: x, reactors: [{plan: p}], assertions: [{type: pending, reactor: p}]}`,
			want: "plans list is required",
		},
		{
			name: "duplicate reactor",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}, {plan: q, name: p}], assertions: [{type: pending, reactor: p}]}`,
			want: `duplicate reactor name "p"`,
		},
		{
			name: "bad delta",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], ticks: [{delta: soon}], assertions: [{type: pending, reactor: p}]}`,
			want: "ticks[0]: delta",
		},
		{
			name: "negative delta",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], ticks: [{delta: -1s}], assertions: [{type: pending, reactor: p}]}`,
			want: "negative delta",
		},
		{
			name: "event without kind",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], ticks: [{events: [{payload: 1}]}], assertions: [{type: pending, reactor: p}]}`,
			want: "ticks[0].events[0]: kind is required",
		},
		{
			name: "cancel unknown reactor",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], ticks: [{cancel: [q]}], assertions: [{type: pending, reactor: p}]}`,
			want: `cancel: unknown reactor "q"`,
		},
		{
			name: "assertion on unknown reactor",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], assertions: [{type: completed, reactor: q}]}`,
			want: `unknown reactor "q"`,
		},
		{
			name: "trace_order needs two steps",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], assertions: [{type: trace_order, steps: [{kind: set}]}]}`,
			want: "at least two steps",
		},
		{
			name: "unknown assertion",
			yaml: `{name: x, plans: [a.cue], reactors: [{plan: p}], assertions: [{type: final_state}]}`,
			want: `unknown assertion type "final_state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTickStepDefaults(t *testing.T) {
	var step TickStep
	assert.Equal(t, 1, step.Frames())
	d, err := step.Duration()
	require.NoError(t, err)
	assert.Equal(t, DefaultDelta, d)

	step = TickStep{Delta: "250ms", Repeat: 3}
	assert.Equal(t, 3, step.Frames())
	d, err = step.Duration()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestLoadScenarioResolvesPlanPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.cue"), []byte(`plan: p: steps: [{frames: 0}]`), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "plans.cue")}, s.Plans)
}

func TestLoadScenarioMissingPlanFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan file not found")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario file")
}
