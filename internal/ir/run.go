package ir

import "fmt"

// DomainRun is the domain prefix of run identities.
const DomainRun = "iontrap/run/v1"

// RunStatus is the outcome of one pipeline run.
type RunStatus string

const (
	// RunOK means the plan was routed and verified.
	RunOK RunStatus = "ok"

	// RunFailed means a stage reported an *Error.
	RunFailed RunStatus = "failed"
)

// Stage names a pipeline step.
type Stage string

const (
	StageSchedule Stage = "schedule"
	StageRoute    Stage = "route"
	StageVerify   Stage = "verify"
)

// StageRecord is one stamped pipeline step of a run.
type StageRecord struct {
	RunID  string    `json:"run_id"`
	Stage  Stage     `json:"stage"`
	Seq    int64     `json:"seq"`
	Status RunStatus `json:"status"`
	Detail string    `json:"detail"`
}

// Run is the persisted summary of one pipeline run. ErrorTick is NoTick
// unless a tick-scoped error failed the run. PlanHash is empty when routing
// did not produce a plan.
type Run struct {
	ID            string    `json:"id"`
	FlowToken     string    `json:"flow_token"`
	Program       string    `json:"program"`
	ProgramHash   string    `json:"program_hash"`
	PlanHash      string    `json:"plan_hash,omitempty"`
	Seq           int64     `json:"seq"`
	Status        RunStatus `json:"status"`
	ErrorCode     ErrorCode `json:"error_code,omitempty"`
	ErrorTick     int       `json:"error_tick"`
	Message       string    `json:"message,omitempty"`
	Fidelity      *float64  `json:"fidelity,omitempty"`
	Ticks         int       `json:"ticks"`
	Frames        int       `json:"frames"`
	EngineVersion string    `json:"engine_version"`
	IRVersion     string    `json:"ir_version"`
}

// RunID computes the content address of a run from its flow token, program
// and clock position.
func RunID(flowToken, programHash string, seq int64) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"flow_token":   flowToken,
		"program_hash": programHash,
		"seq":          seq,
	})
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}
