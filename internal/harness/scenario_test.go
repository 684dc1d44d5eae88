package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

func TestLoadScenario_Timeline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/illegal_move.yaml")
	require.NoError(t, err)

	assert.Equal(t, "illegal_move", s.Name)
	assert.False(t, s.IsProgram())
	require.Len(t, s.Positions, 4)
	require.Len(t, s.Schedule, 4)
	assert.Equal(t, ir.Grid(0, 3), s.Positions[1][0])
	assert.Equal(t, ir.Grid(4, 6), s.Positions[0][7])
	assert.Equal(t, ir.GateRX, s.Schedule[0][0].Kind)
	assert.Empty(t, s.Schedule[1])

	assert.Equal(t, StatusError, s.Expect.Status)
	assert.Equal(t, ir.CodeIllegalMove, s.Expect.Code)
	require.NotNil(t, s.Expect.Tick)
	assert.Equal(t, 1, *s.Expect.Tick)
	assert.Equal(t, []int{0}, s.Expect.Ions)
}

func TestLoadScenario_IdleSite(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/idle_overlap.yaml")
	require.NoError(t, err)
	assert.Equal(t, ir.IdleOf(0, 0), s.Positions[0][0])
}

func TestLoadScenario_Program(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/bell_program.yaml")
	require.NoError(t, err)

	require.True(t, s.IsProgram())
	assert.Equal(t, "bell_program", s.Program.Name)
	assert.Equal(t, "flow-bell", s.FlowToken)
	require.Len(t, s.Program.Gates, 4)
	assert.Equal(t, []int{0, 1}, s.Program.Gates[1].Wires)
	require.NotNil(t, s.Expect.MinFidelity)
	assert.Equal(t, 0.99, *s.Expect.MinFidelity)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/invalid/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positons")
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Geometry(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: custom_trap
description: A program on a 3x3 trap with one interaction site.
trap: {rows: 3, cols: 3, interaction: [[1, 1]]}
wheel: {hub: [1, 1], ring: [[0,0],[0,1],[0,2],[1,2],[2,2],[2,1],[2,0],[1,0]]}
program:
  - {kind: RX, angle: 0.5, wires: 0}
expect:
  status: ok
`))
	require.NoError(t, err)
	require.NotNil(t, s.Trap)
	assert.Equal(t, 3, s.Trap.Rows)
	assert.Equal(t, []ir.SiteID{ir.Grid(1, 1)}, s.Trap.Interaction)
	require.NotNil(t, s.Wheel)
	assert.Equal(t, ir.Grid(1, 1), s.Wheel.Hub)
	assert.Len(t, s.Wheel.Ring, 8)
	assert.Same(t, s.Trap, s.Program.Trap)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nschedule: []\npositions: []\nexpect: {status: ok}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nschedule: []\npositions: []\nexpect: {status: ok}\n",
			want: "description is required",
		},
		{
			name: "no body",
			yaml: "name: n\ndescription: d\nexpect: {status: ok}\n",
			want: "either program or positions and schedule are required",
		},
		{
			name: "both modes",
			yaml: "name: n\ndescription: d\nprogram: []\nschedule: []\nexpect: {status: ok}\n",
			want: "program cannot be combined",
		},
		{
			name: "missing status",
			yaml: "name: n\ndescription: d\nprogram: []\nexpect: {}\n",
			want: "status is required",
		},
		{
			name: "unknown status",
			yaml: "name: n\ndescription: d\nprogram: []\nexpect: {status: maybe}\n",
			want: "unknown status",
		},
		{
			name: "error without code",
			yaml: "name: n\ndescription: d\nprogram: []\nexpect: {status: error}\n",
			want: "code is required",
		},
		{
			name: "ok with code",
			yaml: "name: n\ndescription: d\nprogram: []\nexpect: {status: ok, code: ILLEGAL_MOVE}\n",
			want: "only apply to status",
		},
		{
			name: "fidelity on timeline",
			yaml: "name: n\ndescription: d\npositions: []\nschedule: []\nexpect: {status: ok, min_fidelity: 0.5}\n",
			want: "min_fidelity only applies to program scenarios",
		},
		{
			name: "target without program",
			yaml: "name: n\ndescription: d\ntarget: qft\npositions: []\nschedule: []\nexpect: {status: ok}\n",
			want: "target requires a program",
		},
		{
			name: "bad site",
			yaml: "name: n\ndescription: d\npositions: [[[0,0,parked]]]\nschedule: [[]]\nexpect: {status: ok}\n",
			want: "positions",
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

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)
}
