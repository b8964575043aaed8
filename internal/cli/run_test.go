package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/engine"
)

func newTestRun(format string) (*RunOptions, func(t *testing.T, args ...string) (string, error)) {
	opts := &RunOptions{RootOptions: testOptions(format), IDs: engine.NewFixedGenerator("r1")}
	return opts, func(t *testing.T, args ...string) (string, error) {
		return execute(t, newRunCommand(opts), args...)
	}
}

func TestRunMissingPlanFlag(t *testing.T) {
	_, err := execute(t, NewRunCommand(testOptions("text")), plansDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "plan")
}

func TestRunUnknownPlan(t *testing.T) {
	out, err := execute(t, NewRunCommand(testOptions("text")), plansDir, "--plan", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `plan "nope" not found`)
}

func TestRunCompletes(t *testing.T) {
	_, run := newTestRun("text")

	out, err := run(t, plansDir, "--plan", "countdown")
	require.NoError(t, err)
	assert.Equal(t, "✓ countdown completed at tick 4 = true\n  done = true\n", out)
}

func TestRunStopsAtTickLimit(t *testing.T) {
	_, run := newTestRun("text")

	out, err := run(t, plansDir, "--plan", "countdown", "--ticks", "2")
	require.NoError(t, err)
	assert.Equal(t, "… countdown cancelled after 2 tick(s)\n", out)
}

func TestRunCancelsPendingEffectAtTickLimit(t *testing.T) {
	dir := writePlan(t, `plan: slow: steps: [{effect: {sleep: "30s"}}]`)
	db := filepath.Join(t.TempDir(), "tickflow.db")
	_, run := newTestRun("json")

	start := time.Now()
	out, err := run(t, dir, "--plan", "slow", "--ticks", "3", "--db", db)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	var result struct {
		Status   string `json:"status"`
		Ticks    int    `json:"ticks"`
		DoneTick int64  `json:"done_tick"`
	}
	decode(t, out, &result)
	assert.Equal(t, "cancelled", result.Status)
	assert.Equal(t, 3, result.Ticks)
	assert.Equal(t, int64(3), result.DoneTick)

	out, err = execute(t, NewOutcomesCommand(testOptions("text")), db, "--status", "cancelled")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled slow (r1)")
}

func TestRunFailedPlanExitsWithFailure(t *testing.T) {
	_, run := newTestRun("json")

	out, err := run(t, plansDir, "--plan", "broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result struct {
		Status    string `json:"status"`
		ReactorID string `json:"reactor_id"`
		DoneTick  int64  `json:"done_tick"`
		Error     string `json:"error"`
	}
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "failed", result.Status)
	assert.Equal(t, "r1", result.ReactorID)
	assert.Equal(t, int64(1), result.DoneTick)
	assert.Contains(t, result.Error, "add name")
}

func TestRunEffectOnGoroutines(t *testing.T) {
	_, run := newTestRun("json")

	out, err := run(t, plansDir, "--plan", "fetch", "--ticks", "100000")
	require.NoError(t, err)

	var result struct {
		Status string `json:"status"`
		Value  string `json:"value"`
	}
	decode(t, out, &result)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "loaded", result.Value)
}

func TestRunEffectOnPool(t *testing.T) {
	opts, run := newTestRun("json")
	opts.Config.EffectWorkers = 2

	out, err := run(t, plansDir, "--plan", "fetch", "--ticks", "100000")
	require.NoError(t, err)

	var result struct {
		Status string `json:"status"`
		Value  string `json:"value"`
	}
	decode(t, out, &result)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "loaded", result.Value)
}

func TestRunPersistsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tickflow.db")
	_, run := newTestRun("text")

	out, err := run(t, plansDir, "--plan", "journal", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "✓ journal completed at tick 1 = true\n  hp = 5\n", out)

	out, err = execute(t, NewOutcomesCommand(testOptions("text")), db)
	require.NoError(t, err)
	assert.Contains(t, out, "completed journal (r1)")

	out, err = execute(t, NewHistoryCommand(testOptions("text")), db, "--stack", "edits")
	require.NoError(t, err)
	assert.Contains(t, out, "edits (cursor 1/2)")
}

func TestRunInvalidFlags(t *testing.T) {
	_, run := newTestRun("text")

	_, err := run(t, plansDir, "--plan", "countdown", "--delta", "-1s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "tick delta must not be negative")
}
