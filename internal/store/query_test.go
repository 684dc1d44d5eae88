package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

func TestCompileRunQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  RunQuery
		where  string
		params []any
	}{
		{"no filter", RunQuery{}, "", nil},
		{
			"equals",
			RunQuery{Filter: Equals{Column: "status", Value: "failed"}},
			" WHERE status = ?",
			[]any{"failed"},
		},
		{
			"and",
			RunQuery{Filter: &And{Predicates: []Predicate{
				Equals{Column: "program", Value: "bell"},
				&Equals{Column: "flow_token", Value: "flow-a"},
			}}},
			" WHERE program = ? AND flow_token = ?",
			[]any{"bell", "flow-a"},
		},
		{"empty and", RunQuery{Filter: And{}}, " WHERE 1 = 1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compileRunQuery(tt.query)
			require.NoError(t, err)
			assert.Contains(t, sql, "FROM runs"+tt.where+" ORDER BY seq ASC, id COLLATE BINARY ASC")
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileRunQuery_LimitParam(t *testing.T) {
	sql, params, err := compileRunQuery(RunQuery{
		Filter: Equals{Column: "program", Value: "bell"},
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT ?")
	assert.Equal(t, []any{"bell", 3}, params)
}

func TestCompileRunQuery_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		filter Predicate
	}{
		{"unknown column", Equals{Column: "seq; DROP TABLE runs", Value: "x"}},
		{"null value", Equals{Column: "status", Value: nil}},
		{"float value", Equals{Column: "status", Value: 0.5}},
		{"nested bad", And{Predicates: []Predicate{Equals{Column: "fidelity", Value: "1"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compileRunQuery(RunQuery{Filter: tt.filter})
			assert.Error(t, err)
		})
	}
}

func TestQueryRuns_StatusFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok := createTestRun("flow-a", 1)
	failed := createTestRun("flow-a", 2)
	failed.Status = ir.RunFailed
	failed.ErrorCode = ir.CodeWireConflict
	failed.ErrorTick = 0
	other := createTestRun("flow-b", 3)
	other.Status = ir.RunFailed
	other.ErrorCode = ir.CodeIllegalMove
	other.ErrorTick = 1
	for _, r := range []ir.Run{ok, failed, other} {
		require.NoError(t, s.WriteRun(ctx, r))
	}

	runs, err := s.QueryRuns(ctx, RunQuery{Filter: Equals{Column: "status", Value: string(ir.RunFailed)}})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failed.ID, runs[0].ID)
	assert.Equal(t, other.ID, runs[1].ID)

	runs, err = s.QueryRuns(ctx, RunQuery{Filter: And{Predicates: []Predicate{
		Equals{Column: "status", Value: string(ir.RunFailed)},
		Equals{Column: "flow_token", Value: "flow-a"},
	}}})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ir.CodeWireConflict, runs[0].ErrorCode)

	runs, err = s.QueryRuns(ctx, RunQuery{Filter: Equals{Column: "status", Value: string(ir.RunFailed)}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, other.ID, runs[0].ID)
}

func TestQueryRuns_NoMatch(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.WriteRun(context.Background(), createTestRun("flow-a", 1)))

	runs, err := s.QueryRuns(context.Background(), RunQuery{Filter: Equals{Column: "program", Value: "absent"}})
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
