package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDir_Scenarios(t *testing.T) {
	suite, err := New().RunDir(context.Background(), "testdata/scenarios")
	require.NoError(t, err)

	assert.Equal(t, 8, suite.Total)
	assert.Equal(t, 8, suite.Passed)
	assert.True(t, suite.OK(), "failures: %+v", suite.Failures)
}

func TestRunDir_Failures(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, "testdata/scenarios/wire_conflict.yaml", filepath.Join(dir, "a.yaml"))
	copyScenario(t, "testdata/invalid/unknown_field.yaml", filepath.Join(dir, "b.yaml"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(`
name: wrong_code
description: Expects the wrong code for a wire conflict.
positions: [[[0,0],[4,0],[4,1],[4,2],[4,3],[4,4],[4,5],[4,6]]]
schedule: [[{kind: RX, angle: 0.3, wires: 3}, {kind: RY, angle: 0.7, wires: 3}]]
expect: {status: error, code: ILLEGAL_MOVE}
`), 0o644))

	suite, err := New().RunDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)
	assert.False(t, suite.OK())

	require.Len(t, suite.Failures, 2)
	assert.Equal(t, "b.yaml", suite.Failures[0].Scenario)
	assert.Equal(t, "wrong_code", suite.Failures[1].Scenario)
	assert.Contains(t, suite.Failures[1].Errors[0], "expected code ILLEGAL_MOVE, got WIRE_CONFLICT")
}

func TestRunDir_MissingDir(t *testing.T) {
	_, err := New().RunDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func copyScenario(t *testing.T, from, to string) {
	t.Helper()
	data, err := os.ReadFile(from)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(to, data, 0o644))
}
