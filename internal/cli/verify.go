package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/fidelity"
	"github.com/roach88/iontrap/internal/topology"
	"github.com/roach88/iontrap/internal/verifier"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Program string
	Strict  bool
}

// VerifyResult is the JSON payload of a successful verify command.
type VerifyResult struct {
	Plan   string           `json:"plan"`
	Report *verifier.Report `json:"report"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <plan.json>",
		Short: "Check that a plan is physically legal",
		Long: `Check a (positions, schedule) timeline against the trap: moves follow
edges, no swaps, gates on the right kind of site, no wire conflicts and no
illegal overlaps. The first violation is reported with its tick, ions and
sites.

With --program the schedule is also scored against the program's ideal
state, and --strict fails plans below the fidelity threshold.

Exit codes:
  0 - Plan is legal
  1 - Violation found
  2 - Command error (unreadable plan, bad program, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Program, "program", "", "score fidelity against this program")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when fidelity is below the threshold")
	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	pf, err := readPlanFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read plan", err)
	}
	topo, err := topology.FromSpec(pf.Trap)
	if err != nil {
		return violationOr(formatter, "geometry", err)
	}

	vopts := []verifier.Option{verifier.WithThreshold(cfg.Verify.Threshold)}
	if opts.Strict || cfg.Verify.Strict {
		vopts = append(vopts, verifier.WithStrictFidelity())
	}
	if opts.Program != "" {
		p, err := LoadProgram(opts.Program)
		if err != nil {
			return loadFailure(formatter, err)
		}
		oracle, err := fidelity.NewOracle(p)
		if err != nil {
			_ = formatter.Error(ErrCodeCompileFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to build fidelity oracle", err)
		}
		vopts = append(vopts, verifier.WithOracle(oracle))
	}

	report, err := verifier.Verify(pf.Positions, pf.Schedule, topo, vopts...)
	if err != nil {
		return violationOr(formatter, "verification", err)
	}
	opts.logger().Debug("verified", zap.String("plan", path), zap.Int("ticks", report.Ticks))

	if opts.Format == "json" {
		return formatter.Success(VerifyResult{Plan: path, Report: report})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s: %d tick(s) verified\n", path, report.Ticks)
	if report.Fidelity != nil {
		fmt.Fprintf(w, "fidelity %.6f (threshold %.2f)", *report.Fidelity, report.Threshold)
		if report.BelowThreshold {
			fmt.Fprint(w, " below threshold")
		}
		fmt.Fprintln(w)
	}
	return nil
}
