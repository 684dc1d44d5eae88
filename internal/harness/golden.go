package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/iontrap/internal/ir"
)

// Snapshot is the golden form of a result. Hashes and free-form stage
// details are left out; everything else a reviewer cares about is kept.
func Snapshot(scenarioName string, r *Result) map[string]any {
	snap := map[string]any{
		"scenario": scenarioName,
		"status":   r.Status,
	}
	if r.Error != nil {
		snap["error"] = r.Error
	}
	if r.Report != nil {
		snap["report"] = r.Report
	}
	if r.Run != nil {
		snap["run"] = map[string]any{
			"flow_token": r.Run.FlowToken,
			"seq":        r.Run.Seq,
			"status":     string(r.Run.Status),
			"ticks":      r.Run.Ticks,
			"frames":     r.Run.Frames,
		}
	}
	if len(r.Stages) > 0 {
		stages := make([]any, len(r.Stages))
		for i, st := range r.Stages {
			stages[i] = map[string]any{
				"stage":  string(st.Stage),
				"seq":    st.Seq,
				"status": string(st.Status),
			}
		}
		snap["stages"] = stages
	}
	return snap
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. The result is returned so the
// caller can also check Pass.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
