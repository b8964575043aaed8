package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickflow/internal/config"
)

var (
	plansDir     = filepath.Join("testdata", "plans")
	scenariosDir = filepath.Join("testdata", "scenarios")
	failingDir   = filepath.Join("testdata", "failing")
)

// testOptions returns root options with a fixed config, so tests do not
// depend on TICKFLOW_* variables in the environment.
func testOptions(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Config: &config.Config{
			TickDelta: 16 * time.Millisecond,
			MaxSteps:  1000,
		},
	}
}

// execute runs cmd with args and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decode unmarshals a CLIResponse whose data is decoded into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func writePlan(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.cue"), []byte(src), 0o644))
	return dir
}
