package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/iontrap/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Program string                     `json:"program"`
	Gates   int                        `json:"gates"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a program without scheduling it",
		Long: `Compile a CUE program and report every structural and semantic
problem at once: gate kinds, wire counts and ranges, angles, the fidelity
target and any custom trap or wheel.

<program> is a .cue file or a directory of .cue files.

Exit codes:
  0 - Program is valid
  1 - Validation errors found
  2 - Command error (program not found, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := LoadProgram(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	formatter.VerboseLog("Compiled program %q with %d gate(s)", p.Name, len(p.Gates))

	result := ValidationResult{
		Valid:   true,
		Program: p.Name,
		Gates:   len(p.Gates),
		Errors:  compiler.Validate(p),
	}
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeValidationText(cmd.OutOrStdout(), result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func writeValidationText(w io.Writer, r ValidationResult) {
	if r.Valid {
		fmt.Fprintf(w, "✓ %s: %d gate(s), valid\n", r.Program, r.Gates)
		return
	}
	fmt.Fprintf(w, "✗ %s: %d error(s)\n", r.Program, len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}
