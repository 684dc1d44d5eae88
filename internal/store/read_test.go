package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

func TestListRuns_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Written out of order; read back by seq.
	for _, seq := range []int64{5, 1, 3} {
		require.NoError(t, s.WriteRun(ctx, createTestRun("flow-a", seq)))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{1, 3, 5}, []int64{runs[0].Seq, runs[1].Seq, runs[2].Seq})
}

func TestListRuns_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 4; seq++ {
		require.NoError(t, s.WriteRun(ctx, createTestRun("flow-a", seq)))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(3), runs[0].Seq)
	assert.Equal(t, int64(4), runs[1].Seq)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_SameSeqOrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestRun("flow-a", 7)
	b := createTestRun("flow-b", 7)
	require.NoError(t, s.WriteRun(ctx, a))
	require.NoError(t, s.WriteRun(ctx, b))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Less(t, runs[0].ID, runs[1].ID)
}

func TestReadFlowRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, createTestRun("flow-a", 1)))
	require.NoError(t, s.WriteRun(ctx, createTestRun("flow-b", 2)))
	require.NoError(t, s.WriteRun(ctx, createTestRun("flow-a", 3)))

	runs, err := s.ReadFlowRuns(ctx, "flow-a")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, "flow-a", r.FlowToken)
	}
}

func TestGetLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Zero(t, seq)

	require.NoError(t, s.WriteRun(ctx, createTestRun("flow-a", 4)))
	require.NoError(t, s.WriteStage(ctx, ir.StageRecord{RunID: "x", Stage: ir.StageVerify, Seq: 9, Status: ir.RunOK}))

	seq, err = s.GetLastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}
