package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/iontrap/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a successful run with minimal required fields.
func createTestRun(flowToken string, seq int64) ir.Run {
	id, err := ir.RunID(flowToken, "program-hash", seq)
	if err != nil {
		panic(err)
	}
	return ir.Run{
		ID:            id,
		FlowToken:     flowToken,
		Program:       "bell",
		ProgramHash:   "program-hash",
		Seq:           seq,
		Status:        ir.RunOK,
		ErrorTick:     ir.NoTick,
		Ticks:         1,
		Frames:        2,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// createTestPlan returns a one-MS plan with its closing hold frame.
func createTestPlan() *ir.Plan {
	snap := ir.Snapshot{
		ir.Grid(0, 0), ir.Grid(1, 1), ir.Grid(0, 2), ir.Grid(1, 1),
		ir.Grid(2, 2), ir.Grid(2, 1), ir.Grid(2, 0), ir.Grid(1, 0),
	}
	return &ir.Plan{
		Schedule:  ir.GateSchedule{{ir.MS(0.5, 1, 3)}, {}},
		Positions: ir.PositionHistory{snap, snap.Clone()},
		Source:    []int{0, ir.TransportFrame},
	}
}
