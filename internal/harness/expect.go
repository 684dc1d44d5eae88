package harness

import (
	"fmt"
	"slices"
)

// CheckExpect compares the observed outcome in result against expect and
// records every mismatch on result.
func CheckExpect(result *Result, expect Expect) {
	if result.Status != expect.Status {
		msg := fmt.Sprintf("expected status %q, got %q", expect.Status, result.Status)
		if result.Error != nil {
			msg += fmt.Sprintf(" (%v)", result.Error)
		}
		result.AddError(msg)
		return
	}

	if e := result.Error; e != nil {
		if e.Code != expect.Code {
			result.AddError(fmt.Sprintf("expected code %s, got %s: %s", expect.Code, e.Code, e.Message))
		}
		if expect.Tick != nil && e.Tick != *expect.Tick {
			result.AddError(fmt.Sprintf("expected tick %d, got %d", *expect.Tick, e.Tick))
		}
		if len(expect.Ions) > 0 && !slices.Equal(e.Ions, expect.Ions) {
			result.AddError(fmt.Sprintf("expected ions %v, got %v", expect.Ions, e.Ions))
		}
	}

	if expect.MinFidelity != nil {
		if result.Report == nil || result.Report.Fidelity == nil {
			result.AddError("expected a fidelity score, got none")
		} else if f := *result.Report.Fidelity; f < *expect.MinFidelity {
			result.AddError(fmt.Sprintf("expected fidelity >= %g, got %g", *expect.MinFidelity, f))
		}
	}
}
