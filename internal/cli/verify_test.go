package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

// routedPlan routes bell.cue into a plan file and returns its path.
func routedPlan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bell.plan.json")
	_, _, err := execute(t, NewRouteCommand(&RootOptions{Format: "text"}), "-o", path, program("bell.cue"))
	require.NoError(t, err)
	return path
}

func writePlan(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const bottomRow = `[4,0],[4,1],[4,2],[4,3],[4,4],[4,5],[4,6]`

func TestVerifyRoutedPlan(t *testing.T) {
	path := routedPlan(t)
	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+path)
	assert.NotContains(t, out, "fidelity")
}

func TestVerifyWithProgram(t *testing.T) {
	path := routedPlan(t)
	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), "--program", program("bell.cue"), path)
	require.NoError(t, err)

	var resp struct {
		Data VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Report)
	require.NotNil(t, resp.Data.Report.Fidelity)
	assert.InDelta(t, 1, *resp.Data.Report.Fidelity, 1e-5)
	assert.False(t, resp.Data.Report.BelowThreshold)
}

func TestVerifyBelowThreshold(t *testing.T) {
	path := routedPlan(t)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--program", program("qft.cue"), path)
	require.NoError(t, err, "lenient by default")
	assert.Contains(t, out, "below threshold")

	_, _, err = execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--strict", "--program", program("qft.cue"), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ir.CodeFidelityBelowThreshold, ir.CodeOf(err))
}

func TestVerifyStrictFromConfig(t *testing.T) {
	opts := &RootOptions{Format: "text", Config: testConfig(t, "verify:\n  strict: true\n")}
	_, _, err := execute(t, NewVerifyCommand(opts), "--program", program("qft.cue"), routedPlan(t))
	assert.Equal(t, ir.CodeFidelityBelowThreshold, ir.CodeOf(err))
}

func TestVerifyIllegalMove(t *testing.T) {
	path := writePlan(t, `{
		"schedule": [[{"kind": "RX", "angle": 3.141592653589793, "wires": 0}], []],
		"positions": [[[0,0],`+bottomRow+`], [[0,3],`+bottomRow+`]]
	}`)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(ir.CodeIllegalMove), resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, details["tick"])
}

func TestVerifyIllegalMoveText(t *testing.T) {
	path := writePlan(t, `{
		"schedule": [[], []],
		"positions": [[[0,0],`+bottomRow+`], [[0,3],`+bottomRow+`]]
	}`)

	out, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "Error [ILLEGAL_MOVE]")
	assert.Contains(t, out, "at tick 1, ions [0]")
}

func TestVerifyCustomTrap(t *testing.T) {
	path := writePlan(t, `{
		"trap": {"rows": 1, "cols": 2, "interaction": []},
		"schedule": [[]],
		"positions": [[[0,0],[0,1],[0,0,"idle"],[0,1,"idle"],[0,0],[0,0],[0,0],[0,0]]]
	}`)

	_, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ir.CodeOverlapViolation, ir.CodeOf(err))
}

func TestVerifyMissingPlan(t *testing.T) {
	_, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyMalformedPlan(t *testing.T) {
	path := writePlan(t, `{"schedule": [[{"kind": "RX", "angle": "pi", "wires": 0}]], "positions": []}`)
	_, _, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to read plan")
}
