package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fixaccept/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// HistoryResult is the output of the history command. Exactly one of
// Runs and Cases is set.
type HistoryResult struct {
	Runs  []store.RunSummary `json:"runs,omitempty"`
	Run   *store.Run         `json:"run,omitempty"`
	Cases []store.RunCase    `json:"cases,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run]",
		Short: "Show recorded runs",
		Long: `Without an argument, list every recorded run, oldest first.
With a run ID, a unique ID prefix, or "latest", show that run's cases
and their outcomes in materialized order.

Examples:
  fixaccept history --db runs.db
  fixaccept history --db runs.db latest
  fixaccept history --db runs.db 01928c`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runHistory(cmd.Context(), opts, args, f))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database holding the runs (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, args []string, f *OutputFormatter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 0 {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return codedExitError(ExitCommandError, ErrCodeStore, "failed to list runs", err)
		}
		return f.Emit(HistoryResult{Runs: runs}, func(w io.Writer) {
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded")
				return
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%4d  %s  %d cases  %d passed  %d failed  %d errored  %s\n",
					r.Seq, r.ID, r.CaseCount, r.Passed, r.Failed, r.Errored, r.Config)
			}
		})
	}

	run, err := resolveRun(ctx, st, args[0])
	if err != nil {
		return err
	}
	cases, err := st.RunCases(ctx, run.ID)
	if err != nil {
		return codedExitError(ExitCommandError, ErrCodeStore, "failed to read run cases", err)
	}

	return f.Emit(HistoryResult{Run: &run, Cases: cases}, func(w io.Writer) {
		fmt.Fprintf(w, "Run %s (#%d) from %s\n", run.ID, run.Seq, run.Config)
		if run.Selector != "" {
			fmt.Fprintf(w, "where %s\n", run.Selector)
		}
		fmt.Fprintf(w, "fingerprint %s\n\n", run.Fingerprint)
		for _, c := range cases {
			status := c.Status
			if status == "" {
				status = "-"
			}
			fmt.Fprintf(w, "%04d %-5s %s\n", c.Seq, status, c.Key())
		}
	})
}

// openStore opens an existing run database. Unlike run, the read
// commands never create one.
func openStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, codedExitError(ExitCommandError, ErrCodeStore,
				fmt.Sprintf("database not found: %s", path), nil)
		}
		return nil, codedExitError(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, codedExitError(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

// resolveRun turns a run reference into the stored run.
func resolveRun(ctx context.Context, st *store.Store, ref string) (store.Run, error) {
	id, err := st.ResolveRun(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return store.Run{}, codedExitError(ExitCommandError, ErrCodeStore,
				fmt.Sprintf("run %q not found", ref), nil)
		}
		return store.Run{}, codedExitError(ExitCommandError, ErrCodeStore, "failed to resolve run", err)
	}
	run, err := st.GetRun(ctx, id)
	if err != nil {
		return store.Run{}, codedExitError(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}
	return run, nil
}
