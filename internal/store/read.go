package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

const runColumns = `id, flow_token, program, program_hash, plan_hash, seq, status, error_code,
	error_tick, message, fidelity, ticks, frames, engine_version, ir_version`

// ReadPlan returns the plan stored under hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadPlan(ctx context.Context, hash string) (*ir.Plan, error) {
	var schedule, positions, source string
	err := s.db.QueryRowContext(ctx, `
		SELECT schedule, positions, source FROM plans WHERE hash = ?
	`, hash).Scan(&schedule, &positions, &source)
	if err != nil {
		return nil, err
	}

	p := &ir.Plan{}
	if p.Schedule, err = unmarshalSchedule(schedule); err != nil {
		return nil, err
	}
	if p.Positions, err = unmarshalPositions(positions); err != nil {
		return nil, err
	}
	if p.Source, err = unmarshalSource(source); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every run ordered by seq ASC, id COLLATE BINARY ASC.
// A positive limit keeps only the most recent runs, still in ascending order.
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]ir.Run, error) {
	return s.QueryRuns(ctx, RunQuery{Limit: limit})
}

// ReadFlowRuns returns the runs of one flow token in seq order.
func (s *Store) ReadFlowRuns(ctx context.Context, flowToken string) ([]ir.Run, error) {
	return s.QueryRuns(ctx, RunQuery{Filter: Equals{Column: "flow_token", Value: flowToken}})
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]ir.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadStages returns the stage records of a run in seq order.
func (s *Store) ReadStages(ctx context.Context, runID string) ([]ir.StageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, stage, seq, status, detail FROM stages
		WHERE run_id = ?
		ORDER BY seq ASC, stage COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	stages := []ir.StageRecord{}
	for rows.Next() {
		var st ir.StageRecord
		var stage, status string
		if err := rows.Scan(&st.RunID, &stage, &st.Seq, &status, &st.Detail); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Stage = ir.Stage(stage)
		st.Status = ir.RunStatus(status)
		stages = append(stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return stages, nil
}

// GetLastSeq returns the highest seq number used in the store.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM runs),
			(SELECT COALESCE(MAX(seq), 0) FROM stages)
		)
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a run from either *sql.Row or *sql.Rows. sql.ErrNoRows is
// returned unwrapped.
func scanRun(row scanner) (ir.Run, error) {
	var (
		run       ir.Run
		planHash  sql.NullString
		fidelity  sql.NullFloat64
		status    string
		errorCode string
	)
	err := row.Scan(
		&run.ID,
		&run.FlowToken,
		&run.Program,
		&run.ProgramHash,
		&planHash,
		&run.Seq,
		&status,
		&errorCode,
		&run.ErrorTick,
		&run.Message,
		&fidelity,
		&run.Ticks,
		&run.Frames,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err == sql.ErrNoRows {
		return ir.Run{}, err
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.PlanHash = planHash.String
	run.Status = ir.RunStatus(status)
	run.ErrorCode = ir.ErrorCode(errorCode)
	if fidelity.Valid {
		f := fidelity.Float64
		run.Fidelity = &f
	}
	return run, nil
}
