package harness

import (
	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/verifier"
)

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true when the outcome matches the expect clause.
	Pass bool `json:"pass"`

	// Status is the observed outcome, StatusOK or StatusError.
	Status string `json:"status"`

	// Error is the observed failure, if any.
	Error *ir.Error `json:"error,omitempty"`

	// Report is the verifier report when verification succeeded.
	Report *verifier.Report `json:"report,omitempty"`

	// Plan, Run and Stages are only set for program scenarios.
	Plan   *ir.Plan         `json:"plan,omitempty"`
	Run    *ir.Run          `json:"run,omitempty"`
	Stages []ir.StageRecord `json:"stages,omitempty"`

	// Errors lists every mismatch against the expect clause.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// setOutcome records err as the observed outcome.
func (r *Result) setOutcome(err *ir.Error) {
	r.Error = err
	if err != nil {
		r.Status = StatusError
		return
	}
	r.Status = StatusOK
}
