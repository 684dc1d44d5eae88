package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/logging"
	"github.com/roach88/iontrap/internal/testutil"
	"github.com/roach88/iontrap/internal/verifier"
)

func load(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	names := []string{
		"minimal_valid",
		"illegal_move",
		"ms_collocation",
		"wire_conflict",
		"idle_overlap",
		"bell_program",
		"bad_wire_program",
		"qft_target",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			result, err := Run(load(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_IdleOverlap(t *testing.T) {
	result, err := Run(load(t, "idle_overlap"))
	require.NoError(t, err)
	require.NotNil(t, result.Error)
	assert.ElementsMatch(t, []int{0, 1}, result.Error.Ions)
	assert.Equal(t, []ir.SiteID{ir.Grid(0, 0), ir.IdleOf(0, 0)}, result.Error.Sites)
}

func TestRun_ProgramUsesDeterministicHelpers(t *testing.T) {
	h := New()
	scenario := load(t, "bell_program")

	first, err := h.Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := h.Run(context.Background(), scenario)
	require.NoError(t, err)

	require.NotNil(t, first.Run)
	assert.Equal(t, "flow-bell", first.Run.FlowToken)
	assert.Equal(t, int64(1), first.Run.Seq, "clock is reset per scenario")
	assert.Equal(t, first.Run.ID, second.Run.ID)
	assert.Equal(t, first.Run.PlanHash, second.Run.PlanHash)

	require.Len(t, first.Stages, 3)
	assert.Equal(t, ir.StageVerify, first.Stages[2].Stage)
	assert.Equal(t, int64(4), first.Stages[2].Seq)
}

func TestRun_DefaultFlowToken(t *testing.T) {
	result, err := Run(load(t, "qft_target"))
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultFlowToken, result.Run.FlowToken)

	require.NotNil(t, result.Report.Fidelity)
	assert.True(t, result.Report.BelowThreshold)
}

func TestRun_ProgramFailure(t *testing.T) {
	result, err := Run(load(t, "bad_wire_program"))
	require.NoError(t, err)

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, ir.RunFailed, result.Run.Status)
	assert.Nil(t, result.Plan)
	require.Len(t, result.Stages, 1)
	assert.Equal(t, ir.RunFailed, result.Stages[0].Status)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s := load(t, "illegal_move")
	tick := 2
	s.Expect.Tick = &tick
	s.Expect.Ions = []int{4}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected tick 2, got 1")
}

func TestRun_StatusMismatch(t *testing.T) {
	s := load(t, "wire_conflict")
	s.Expect = Expect{Status: StatusOK}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected status "ok", got "error"`)
	assert.Contains(t, result.Errors[0], "WIRE_CONFLICT")
}

func TestRun_BadTrapIsOutcome(t *testing.T) {
	s := load(t, "minimal_valid")
	s.Trap = &ir.TrapSpec{Rows: 0, Cols: 3}
	s.Expect = Expect{Status: StatusError, Code: ir.CodeMalformedInput}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Logger(t *testing.T) {
	logger := logging.NewTestLogger()
	h := New(WithLogger(logger.Logger))

	_, err := h.Run(context.Background(), load(t, "bell_program"))
	require.NoError(t, err)
	logger.AssertLogged(t, zapcore.InfoLevel, "run verified")
	logger.AssertField(t, "run started", "flow", "flow-bell")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, load(t, "bell_program"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckExpect_MinFidelity(t *testing.T) {
	low := 0.4
	floor := 0.9
	result := NewResult()
	result.Status = StatusOK
	CheckExpect(result, Expect{Status: StatusOK, MinFidelity: &floor})
	assert.Equal(t, []string{"expected a fidelity score, got none"}, result.Errors)

	result = NewResult()
	result.Status = StatusOK
	result.Report = &verifier.Report{Fidelity: &low}
	CheckExpect(result, Expect{Status: StatusOK, MinFidelity: &floor})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected fidelity >= 0.9, got 0.4")
}
