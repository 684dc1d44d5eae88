package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/scheduler"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	EntanglingLimit int
}

// ScheduleResult is the JSON payload of the schedule command.
type ScheduleResult struct {
	Program  string          `json:"program"`
	Ticks    int             `json:"ticks"`
	Schedule ir.GateSchedule `json:"schedule"`
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule <program>",
		Short: "Pack a program into ticks",
		Long: `Pack the program's gates into ticks and print the result as a
wire-by-tick table. Entangling ticks are marked with *.

Examples:
  iontrap schedule ./programs/bell.cue
  iontrap schedule --entangling-limit 0 --format json ./programs/qft`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.EntanglingLimit, "entangling-limit", 1, "MS gates per entangling tick (0 = unlimited)")
	return cmd
}

func runSchedule(opts *ScheduleOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := LoadProgram(path)
	if err != nil {
		return loadFailure(formatter, err)
	}

	res, err := scheduleProgram(p, opts.EntanglingLimit)
	if err != nil {
		return violationOr(formatter, "scheduling", err)
	}
	opts.logger().Debug("scheduled", zap.String("program", p.Name), zap.Int("ticks", len(res.Ticks)))

	if opts.Format == "json" {
		return formatter.Success(ScheduleResult{
			Program:  p.Name,
			Ticks:    len(res.Ticks),
			Schedule: res.Schedule(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d gate(s) in %d tick(s)\n\n", p.Name, len(p.Gates), len(res.Ticks))
	fmt.Fprint(cmd.OutOrStdout(), res.Table())
	return nil
}

func scheduleProgram(p *ir.Program, limit int) (*scheduler.Result, error) {
	return scheduler.Schedule(p.Gates, scheduler.WithEntanglingLimit(limit))
}
