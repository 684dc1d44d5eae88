package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/engine"
	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/metrics"
	"github.com/roach88/iontrap/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool
	Strict   bool

	// FlowGenerator allows overriding the flow token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	FlowGenerator engine.FlowTokenGenerator
}

// RunSummary is the JSON payload of the run command.
type RunSummary struct {
	Run    ir.Run           `json:"run"`
	Stages []ir.StageRecord `json:"stages"`
	Stored bool             `json:"stored"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Schedule, route and verify a program",
		Long: `Run the full pipeline on a program: schedule, route, then verify the
routed plan and score it against the program's fidelity target.

With --db (or store.path in the config file) the plan, the run and its
stages are appended to the SQLite run log, and the logical clock resumes
from the log's last seq.

Exit codes:
  0 - Run verified
  1 - Run failed (the error code names the violated rule)
  2 - Command error (program not found, database error, etc.)

Examples:
  iontrap run ./programs/bell.cue
  iontrap run --db ./runs.db --metrics ./programs/qft`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (overrides store.path)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr after the run")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail runs below the fidelity threshold")

	return cmd
}

func runPipeline(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()
	logger := opts.logger()

	p, err := LoadProgram(path)
	if err != nil {
		return loadFailure(formatter, err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flowGen := opts.FlowGenerator
	if flowGen == nil {
		flowGen = engine.UUIDv7Generator{}
	}
	m := metrics.New()
	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithFlowGenerator(flowGen),
		engine.WithThreshold(cfg.Verify.Threshold),
		engine.WithStrictFidelity(opts.Strict || cfg.Verify.Strict),
		engine.WithMaxFrames(cfg.Router.MaxFrames),
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", zap.Error(closeErr))
			}
		}()
		last, err := st.GetLastSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read last seq", err)
		}
		logger.Debug("database ready", zap.String("path", dbPath), zap.Int64("last_seq", last))
		engineOpts = append(engineOpts, engine.WithStore(st), engine.WithClock(engine.NewClockAt(last)))
	}

	res, err := engine.New(engineOpts...).Run(ctx, p)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run aborted", err)
	}

	if opts.Metrics {
		if err := m.WriteText(formatter.GetErrWriter()); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	if !res.OK() {
		return formatter.Violation(failedStage(res), res.Err)
	}

	if opts.Format == "json" {
		return formatter.Success(RunSummary{Run: res.Run, Stages: res.Stages, Stored: dbPath != ""})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s verified: %d tick(s), %d frame(s)\n", res.Run.Program, res.Run.Ticks, res.Run.Frames)
	if res.Run.Fidelity != nil {
		fmt.Fprintf(w, "fidelity %.6f\n", *res.Run.Fidelity)
	}
	fmt.Fprintf(w, "run %s (flow %s, seq %d)\n", res.Run.ID, res.Run.FlowToken, res.Run.Seq)
	return nil
}

// failedStage names the stage a failed run stopped in. Geometry failures
// happen before any stage is recorded.
func failedStage(res *engine.RunResult) string {
	if n := len(res.Stages); n > 0 {
		return string(res.Stages[n-1].Stage)
	}
	return "geometry"
}
