package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/engine"
	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/store"
	"github.com/roach88/iontrap/internal/testutil"
	"github.com/roach88/iontrap/internal/topology"
	"github.com/roach88/iontrap/internal/verifier"
)

// Harness runs scenarios with deterministic helpers. The clock is reset
// before every scenario.
type Harness struct {
	clock  *testutil.DeterministicClock
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes engine logs for program scenarios to l.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a fresh harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes scenario and checks its expect clause.
//
// The returned error is reserved for infrastructure failures such as the
// store or a cancelled context. Every *ir.Error is an outcome and lands in
// Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	h.clock.Reset()

	var (
		result *Result
		err    error
	)
	if scenario.IsProgram() {
		result, err = h.runProgram(ctx, scenario)
	} else {
		result, err = h.runTimeline(scenario)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	CheckExpect(result, scenario.Expect)
	return result, nil
}

func (h *Harness) runTimeline(scenario *Scenario) (*Result, error) {
	result := NewResult()
	topo, err := topology.FromSpec(scenario.Trap)
	if err != nil {
		e, ok := ir.AsError(err)
		if !ok {
			return nil, err
		}
		result.setOutcome(e)
		return result, nil
	}

	report, err := verifier.Verify(scenario.Positions, scenario.Schedule, topo)
	if err != nil {
		e, ok := ir.AsError(err)
		if !ok {
			return nil, err
		}
		result.setOutcome(e)
		return result, nil
	}
	result.Report = report
	result.setOutcome(nil)
	return result, nil
}

// runProgram runs the full pipeline on a throwaway in-memory store.
func (h *Harness) runProgram(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(
		engine.WithStore(st),
		engine.WithClock(h.clock),
		engine.WithFlowGenerator(testutil.NewFixedFlowGenerator(scenario.FlowToken)),
		engine.WithLogger(h.logger),
	)
	res, err := eng.Run(ctx, scenario.Program)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Report = res.Report
	result.Plan = res.Plan
	result.Run = &res.Run
	result.Stages = res.Stages
	result.setOutcome(res.Err)
	return result, nil
}
