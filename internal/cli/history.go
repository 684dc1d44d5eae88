package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Limit     int
	FlowToken string
	Program   string
	Status    string
	RunID     string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs   []ir.Run         `json:"runs"`
	Stages []ir.StageRecord `json:"stages,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the run log",
		Long: `List runs from the SQLite run log in logical-clock order.

Examples:
  iontrap history --db ./runs.db
  iontrap history --db ./runs.db --flow 0190a3c4-...
  iontrap history --db ./runs.db --program bell --status failed
  iontrap history --db ./runs.db --run <run-id> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (overrides store.path)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show only the most recent runs (0 = all)")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "show runs of one flow only")
	cmd.Flags().StringVar(&opts.Program, "program", "", "show runs of one program only")
	cmd.Flags().StringVar(&opts.Status, "status", "", "show runs with this status only (ok, failed)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its stages")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.config().Store.Path
	}
	if dbPath == "" {
		_ = formatter.Error(ErrCodeStoreFailed, "no run log configured: pass --db or set store.path", nil)
		return NewExitError(ExitCommandError, "no run log configured")
	}
	// Opening creates the file; history must not.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", dbPath), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	if opts.Status != "" && opts.Status != string(ir.RunOK) && opts.Status != string(ir.RunFailed) {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("invalid status %q: must be ok or failed", opts.Status), nil)
		return NewExitError(ExitCommandError, "invalid status")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := readHistory(cmd.Context(), st, opts)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return NewExitError(ExitCommandError, "run not found")
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeHistoryText(cmd.OutOrStdout(), result)
	return nil
}

func readHistory(ctx context.Context, st *store.Store, opts *HistoryOptions) (*HistoryResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.RunID == "" {
		runs, err := st.QueryRuns(ctx, runQuery(opts))
		if err != nil {
			return nil, err
		}
		return &HistoryResult{Runs: runs}, nil
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}
	stages, err := st.ReadStages(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Runs: []ir.Run{run}, Stages: stages}, nil
}

// runQuery turns the filter flags into a store query. The limit applies
// after filtering.
func runQuery(opts *HistoryOptions) store.RunQuery {
	var filter store.And
	for _, f := range []struct{ column, value string }{
		{"flow_token", opts.FlowToken},
		{"program", opts.Program},
		{"status", opts.Status},
	} {
		if f.value != "" {
			filter.Predicates = append(filter.Predicates, store.Equals{Column: f.column, Value: f.value})
		}
	}
	q := store.RunQuery{Limit: opts.Limit}
	if len(filter.Predicates) > 0 {
		q.Filter = filter
	}
	return q
}

func writeHistoryText(w io.Writer, r *HistoryResult) {
	if len(r.Runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tPROGRAM\tSTATUS\tTICKS\tFRAMES\tFIDELITY")
	for _, run := range r.Runs {
		status := string(run.Status)
		if run.ErrorCode != "" {
			status = fmt.Sprintf("%s %s", run.Status, run.ErrorCode)
		}
		fid := "-"
		if run.Fidelity != nil {
			fid = fmt.Sprintf("%.6f", *run.Fidelity)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			run.Seq, shortID(run.ID), run.Program, status, run.Ticks, run.Frames, fid)
	}
	tw.Flush()

	if len(r.Stages) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTAGE\tSTATUS\tDETAIL")
	for _, st := range r.Stages {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Seq, st.Stage, st.Status, st.Detail)
	}
	tw.Flush()
}

// shortID trims a content-addressed ID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
