package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/fidelity"
	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/metrics"
	"github.com/roach88/iontrap/internal/router"
	"github.com/roach88/iontrap/internal/scheduler"
	"github.com/roach88/iontrap/internal/store"
	"github.com/roach88/iontrap/internal/topology"
	"github.com/roach88/iontrap/internal/verifier"
)

// entanglingLimit is the number of MS gates the single-hub router can run
// in one tick.
const entanglingLimit = 1

// Engine runs programs. Its collaborators are fixed at construction; Run may
// be called repeatedly and from several goroutines when the clock, flow
// generator and store allow it (the production ones do).
type Engine struct {
	store     *store.Store
	clock     LogicalClock
	flowGen   FlowTokenGenerator
	logger    *zap.Logger
	metrics   *metrics.Metrics
	threshold float64
	strict    bool
	maxFrames int
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists plans, runs and stages. Without it nothing is written.
func WithStore(s *store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock replaces the default clock starting at zero.
func WithClock(c LogicalClock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithFlowGenerator replaces the UUIDv7 token source.
func WithFlowGenerator(g FlowTokenGenerator) Option {
	return func(e *Engine) { e.flowGen = g }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records pipeline counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithThreshold sets the fidelity threshold passed to the verifier.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithStrictFidelity fails runs whose fidelity is below the threshold.
func WithStrictFidelity(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithMaxFrames bounds routed plans. Zero keeps the router unbounded.
func WithMaxFrames(n int) Option {
	return func(e *Engine) { e.maxFrames = n }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:     NewClock(),
		flowGen:   UUIDv7Generator{},
		logger:    zap.NewNop(),
		metrics:   metrics.New(),
		threshold: verifier.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// RunResult is everything one run produced. Schedule, Plan and Report are
// set for every stage that completed. Err is the pipeline failure, if any.
type RunResult struct {
	Run      ir.Run
	Stages   []ir.StageRecord
	Schedule *scheduler.Result
	Plan     *ir.Plan
	Report   *verifier.Report
	Err      *ir.Error
}

// OK reports whether the run verified.
func (r *RunResult) OK() bool {
	return r.Err == nil
}

// Geometry builds the trap and wheel a program asks for.
func Geometry(p *ir.Program) (*topology.Topology, *router.Wheel, error) {
	topo, err := topology.FromSpec(p.Trap)
	if err != nil {
		return nil, nil, err
	}
	wheel, err := router.WheelFromSpec(topo, p.Wheel)
	if err != nil {
		return nil, nil, err
	}
	return topo, wheel, nil
}

// Run schedules, routes and verifies p.
func (e *Engine) Run(ctx context.Context, p *ir.Program) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prog := *p
	if prog.Gates == nil {
		prog.Gates = []ir.Gate{}
	}
	if prog.Target == "" {
		prog.Target = ir.TargetProgram
	}
	// Non-finite angles cannot be hashed; the scheduler rejects them below.
	programHash, hashErr := ir.ProgramHash(&prog)

	flow := e.flowGen.Generate()
	start := e.clock.Next()
	runID, err := ir.RunID(flow, programHash, start)
	if err != nil {
		return nil, err
	}

	log := e.logger.With(zap.String("flow", flow), zap.String("program", prog.Name))
	log.Info("run started", zap.Int("gates", len(prog.Gates)), zap.Int64("seq", start))

	res := &RunResult{
		Run: ir.Run{
			ID:            runID,
			FlowToken:     flow,
			Program:       prog.Name,
			ProgramHash:   programHash,
			Seq:           start,
			Status:        ir.RunOK,
			ErrorTick:     ir.NoTick,
			EngineVersion: ir.EngineVersion,
			IRVersion:     ir.IRVersion,
		},
	}

	err = e.pipeline(ctx, &prog, res, log)
	if err == nil && hashErr != nil {
		err = ir.NewError(ir.CodeMalformedInput, hashErr.Error())
	}
	if err != nil {
		var pe *ir.Error
		if !errors.As(err, &pe) {
			return nil, err
		}
		res.Err = pe
		res.Run.Status = ir.RunFailed
		res.Run.ErrorCode = pe.Code
		res.Run.ErrorTick = pe.Tick
		res.Run.Message = pe.Message
		log.Warn("run failed", zap.String("code", string(pe.Code)), zap.Int("tick", pe.Tick), zap.String("message", pe.Message))
	} else {
		fields := []zap.Field{zap.Int("frames", res.Run.Frames)}
		if res.Run.Fidelity != nil {
			fields = append(fields, zap.Float64("fidelity", *res.Run.Fidelity))
		}
		log.Info("run verified", fields...)
	}

	if err := e.persist(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// pipeline runs the stages in order. It returns the first *ir.Error, or an
// infrastructure error such as cancellation.
func (e *Engine) pipeline(ctx context.Context, p *ir.Program, res *RunResult, log *zap.Logger) error {
	topo, wheel, err := Geometry(p)
	if err != nil {
		return err
	}

	// schedule
	sched, err := scheduler.Schedule(p.Gates, scheduler.WithEntanglingLimit(entanglingLimit))
	if err := e.stage(ctx, res, ir.StageSchedule, err, func() string {
		return fmt.Sprintf("%d ticks", len(sched.Ticks))
	}); err != nil {
		return err
	}
	res.Schedule = sched
	res.Run.Ticks = len(sched.Ticks)
	e.metrics.ObserveSchedule(len(sched.Ticks))
	log.Debug("scheduled", zap.Int("ticks", len(sched.Ticks)))

	// route
	plan, err := router.New(wheel, router.WithMaxFrames(e.maxFrames)).Route(sched.Schedule())
	if err := e.stage(ctx, res, ir.StageRoute, err, func() string {
		return fmt.Sprintf("%d frames, %d transport", plan.Frames(), plan.TransportFrames())
	}); err != nil {
		return err
	}
	res.Plan = plan
	res.Run.Frames = plan.Frames()
	if res.Run.PlanHash, err = ir.PlanHash(plan); err != nil {
		return fmt.Errorf("hash plan: %w", err)
	}
	e.metrics.ObservePlan(plan)
	log.Debug("routed", zap.Int("frames", plan.Frames()), zap.Int("transport", plan.TransportFrames()))

	// verify
	oracle, err := fidelity.NewOracle(p)
	if err != nil {
		err = ir.NewError(ir.CodeMalformedInput, err.Error())
		return e.stage(ctx, res, ir.StageVerify, err, nil)
	}
	opts := []verifier.Option{verifier.WithOracle(oracle), verifier.WithThreshold(e.threshold)}
	if e.strict {
		opts = append(opts, verifier.WithStrictFidelity())
	}
	report, err := verifier.Verify(plan.Positions, plan.Schedule, topo, opts...)
	if report != nil {
		res.Report = report
		res.Run.Fidelity = report.Fidelity
	}
	e.metrics.ObserveVerification(err, res.Run.Fidelity)
	return e.stage(ctx, res, ir.StageVerify, err, func() string {
		if report.Fidelity == nil {
			return "verified"
		}
		return fmt.Sprintf("fidelity %.6f", *report.Fidelity)
	})
}

// stage stamps one step. A stage error that is an *ir.Error is recorded as a
// failed stage and returned; any other error is returned untouched.
func (e *Engine) stage(ctx context.Context, res *RunResult, name ir.Stage, stageErr error, detail func() string) error {
	rec := ir.StageRecord{RunID: res.Run.ID, Stage: name, Seq: e.clock.Next(), Status: ir.RunOK}
	if stageErr != nil {
		if _, ok := ir.AsError(stageErr); !ok {
			return stageErr
		}
		rec.Status = ir.RunFailed
		rec.Detail = stageErr.Error()
		res.Stages = append(res.Stages, rec)
		return stageErr
	}
	rec.Detail = detail()
	res.Stages = append(res.Stages, rec)
	return ctx.Err()
}

func (e *Engine) persist(ctx context.Context, res *RunResult) error {
	if e.store == nil {
		return nil
	}
	if res.Plan != nil {
		if _, err := e.store.WritePlan(ctx, res.Plan); err != nil {
			return fmt.Errorf("persist run %s: %w", res.Run.ID, err)
		}
	}
	for _, st := range res.Stages {
		if err := e.store.WriteStage(ctx, st); err != nil {
			return fmt.Errorf("persist run %s: %w", res.Run.ID, err)
		}
	}
	if err := e.store.WriteRun(ctx, res.Run); err != nil {
		return fmt.Errorf("persist run %s: %w", res.Run.ID, err)
	}
	return nil
}
