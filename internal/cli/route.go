package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/engine"
	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/router"
)

// PlanFile is the on-disk form of a routed plan. Trap is omitted for the
// reference trap.
type PlanFile struct {
	Trap *ir.TrapSpec `json:"trap,omitempty"`
	ir.Plan
}

// RouteOptions holds flags for the route command.
type RouteOptions struct {
	*RootOptions
	Output string
}

// RouteResult is the JSON payload of the route command.
type RouteResult struct {
	Program   string   `json:"program"`
	Ticks     int      `json:"ticks"`
	Frames    int      `json:"frames"`
	Transport int      `json:"transport"`
	PlanHash  string   `json:"plan_hash"`
	Output    string   `json:"output,omitempty"`
	Plan      *ir.Plan `json:"plan,omitempty"`
}

// NewRouteCommand creates the route command.
func NewRouteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RouteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "route <program>",
		Short: "Schedule a program and route its ions",
		Long: `Schedule the program with one MS per entangling tick, then route the
ions on the wheel so every MS runs at the hub. The plan can be written to a
file and checked later with "iontrap verify".

Examples:
  iontrap route ./programs/bell.cue
  iontrap route -o bell.plan.json ./programs/bell.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the plan to this file")
	return cmd
}

func runRoute(opts *RouteOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	p, err := LoadProgram(path)
	if err != nil {
		return loadFailure(formatter, err)
	}

	_, wheel, err := engine.Geometry(p)
	if err != nil {
		return violationOr(formatter, "geometry", err)
	}
	sched, err := scheduleProgram(p, 1)
	if err != nil {
		return violationOr(formatter, "scheduling", err)
	}
	plan, err := router.New(wheel, router.WithMaxFrames(cfg.Router.MaxFrames)).Route(sched.Schedule())
	if err != nil {
		return violationOr(formatter, "routing", err)
	}
	hash, err := ir.PlanHash(plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash plan", err)
	}
	opts.logger().Debug("routed",
		zap.String("program", p.Name),
		zap.Int("frames", plan.Frames()),
		zap.Int("transport", plan.TransportFrames()))

	result := RouteResult{
		Program:   p.Name,
		Ticks:     len(sched.Ticks),
		Frames:    plan.Frames(),
		Transport: plan.TransportFrames(),
		PlanHash:  hash,
		Output:    opts.Output,
	}
	if opts.Output != "" {
		if err := writePlanFile(opts.Output, PlanFile{Trap: p.Trap, Plan: *plan}); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write plan", err)
		}
		formatter.VerboseLog("Wrote plan to %s", opts.Output)
	} else {
		result.Plan = plan
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d tick(s) routed into %d frame(s), %d transport\n", result.Program, result.Ticks, result.Frames, result.Transport)
	fmt.Fprintf(w, "plan %s\n", result.PlanHash)
	if opts.Output != "" {
		fmt.Fprintf(w, "written to %s\n", opts.Output)
	}
	return nil
}

// violationOr reports err as a rule violation when it is one, and as a
// command error otherwise.
func violationOr(f *OutputFormatter, stage string, err error) error {
	if e, ok := ir.AsError(err); ok {
		return f.Violation(stage, e)
	}
	_ = f.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, stage+" failed", err)
}

func writePlanFile(path string, pf PlanFile) error {
	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// readPlanFile loads a plan written by route, or any file of the same shape.
func readPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf PlanFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return &pf, nil
}
