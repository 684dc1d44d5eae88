package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

// WritePlan stores a routed plan under its content hash and returns the hash.
// Uses ON CONFLICT(hash) DO NOTHING: writing the same plan twice is a no-op.
func (s *Store) WritePlan(ctx context.Context, p *ir.Plan) (string, error) {
	hash, err := ir.PlanHash(p)
	if err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}

	schedule, err := marshalColumn("schedule", p.Schedule)
	if err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	positions, err := marshalColumn("positions", p.Positions)
	if err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	source := p.Source
	if source == nil {
		source = []int{}
	}
	sourceJSON, err := marshalColumn("source", source)
	if err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (hash, schedule, positions, source, frames, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, schedule, positions, sourceJSON, p.Frames(), ir.IRVersion)
	if err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	return hash, nil
}

// WriteRun inserts a run summary. Uses ON CONFLICT(id) DO NOTHING for
// idempotency. A non-empty PlanHash must reference a stored plan (foreign
// key constraint).
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	var planHash sql.NullString
	if run.PlanHash != "" {
		planHash = sql.NullString{String: run.PlanHash, Valid: true}
	}
	var fidelity sql.NullFloat64
	if run.Fidelity != nil {
		fidelity = sql.NullFloat64{Float64: *run.Fidelity, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, flow_token, program, program_hash, plan_hash, seq, status, error_code,
		 error_tick, message, fidelity, ticks, frames, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.FlowToken,
		run.Program,
		run.ProgramHash,
		planHash,
		run.Seq,
		string(run.Status),
		string(run.ErrorCode),
		run.ErrorTick,
		run.Message,
		fidelity,
		run.Ticks,
		run.Frames,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteStage records one pipeline step. A run has at most one record per
// stage; duplicates are silently ignored.
func (s *Store) WriteStage(ctx context.Context, st ir.StageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (run_id, stage, seq, status, detail)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO NOTHING
	`, st.RunID, string(st.Stage), st.Seq, string(st.Status), st.Detail)
	if err != nil {
		return fmt.Errorf("write stage: %w", err)
	}
	return nil
}
