package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

func TestWritePlan_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	plan := createTestPlan()

	hash, err := s.WritePlan(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, ir.MustPlanHash(plan), hash)

	got, err := s.ReadPlan(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, plan, got)
	assert.Equal(t, hash, ir.MustPlanHash(got), "stored plan hashes to its key")
}

func TestWritePlan_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	h1, err := s.WritePlan(ctx, createTestPlan())
	require.NoError(t, err)
	h2, err := s.WritePlan(ctx, createTestPlan())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM plans").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReadPlan_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadPlan(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	hash, err := s.WritePlan(ctx, createTestPlan())
	require.NoError(t, err)

	f := 0.998
	run := createTestRun("flow-1", 4)
	run.PlanHash = hash
	run.Fidelity = &f
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestWriteRun_Failed(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("flow-2", 2)
	run.Status = ir.RunFailed
	run.ErrorCode = ir.CodeUnschedulable
	run.ErrorTick = 0
	run.Message = "tick holds 2 MS gates"
	run.Frames = 0
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PlanHash)
	assert.Nil(t, got.Fidelity)
	assert.Equal(t, ir.CodeUnschedulable, got.ErrorCode)
	assert.Equal(t, 0, got.ErrorTick)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run := createTestRun("flow-1", 1)

	require.NoError(t, s.WriteRun(ctx, run))
	run.Message = "changed"
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Message, "first write wins")
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWriteStage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, st := range []ir.Stage{ir.StageSchedule, ir.StageRoute, ir.StageVerify} {
		require.NoError(t, s.WriteStage(ctx, ir.StageRecord{
			RunID: "run-1", Stage: st, Seq: int64(i + 1), Status: ir.RunOK, Detail: string(st),
		}))
	}
	// Duplicate stage is ignored.
	require.NoError(t, s.WriteStage(ctx, ir.StageRecord{RunID: "run-1", Stage: ir.StageRoute, Seq: 9, Status: ir.RunFailed}))

	stages, err := s.ReadStages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, ir.StageSchedule, stages[0].Stage)
	assert.Equal(t, ir.StageVerify, stages[2].Stage)
	assert.Equal(t, ir.RunOK, stages[1].Status)

	stages, err = s.ReadStages(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, stages)
	assert.NotNil(t, stages)
}
