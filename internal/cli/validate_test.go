package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidPlans(t *testing.T) {
	out, err := execute(t, NewValidateCommand(testOptions("text")), plansDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 4 plan(s) valid")
}

func TestValidateValidPlansJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(testOptions("json")), plansDir)
	require.NoError(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.ElementsMatch(t, []string{"countdown", "journal", "fetch", "broken"}, result.Plans)
	assert.Empty(t, result.Errors)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(testOptions("text")), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E005")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, NewValidateCommand(testOptions("text")), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
}

func TestValidateUnknownKind(t *testing.T) {
	dir := writePlan(t, `plan: bad: steps: [{teleport: "x"}]`)

	out, err := execute(t, NewValidateCommand(testOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E101")
	assert.Contains(t, out, `unknown step kind "teleport"`)
}

func TestValidateUnknownKindJSON(t *testing.T) {
	dir := writePlan(t, `plan: bad: steps: [{teleport: "x"}]`)

	out, err := execute(t, NewValidateCommand(testOptions("json")), dir)
	require.Error(t, err)

	var result ValidationResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E101", resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Positive(t, result.Errors[0].Line)
}

func TestValidateReportsLintFindings(t *testing.T) {
	dir := writePlan(t, `plan: waiter: steps: [{event: "jump"}]`)

	out, err := execute(t, NewValidateCommand(testOptions("text")), dir)
	require.NoError(t, err, "lint findings do not fail validation")
	assert.Contains(t, out, "✓ 1 plan(s) valid")
	assert.Contains(t, out, `info: plan waiter: event "jump" is not emitted by any plan`)
}
