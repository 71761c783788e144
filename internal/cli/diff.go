package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Compare two recorded runs",
		Long: `Compare two runs case by case: cases only in one run, and cases
whose outcome changed. Runs are named by ID, unique ID prefix, or
"latest".

Exit codes:
  0 - Compared
  2 - Command error (unknown run, unreadable database)

Examples:
  fixaccept diff --db runs.db 01928c latest`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runDiff(cmd.Context(), opts, args[0], args[1], f))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database holding the runs (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDiff(ctx context.Context, opts *DiffOptions, refA, refB string, f *OutputFormatter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	a, err := resolveRun(ctx, st, refA)
	if err != nil {
		return err
	}
	b, err := resolveRun(ctx, st, refB)
	if err != nil {
		return err
	}

	d, err := st.Diff(ctx, a.ID, b.ID)
	if err != nil {
		return codedExitError(ExitCommandError, ErrCodeStore, "failed to diff runs", err)
	}

	return f.Emit(d, func(w io.Writer) {
		fmt.Fprintf(w, "%s -> %s\n", d.From, d.To)
		if d.SameEnumeration {
			fmt.Fprintln(w, "same enumeration")
		} else {
			fmt.Fprintln(w, "enumeration changed")
		}
		if d.Empty() {
			fmt.Fprintln(w, "no differences")
			return
		}
		for _, k := range d.Removed {
			fmt.Fprintf(w, "- %s\n", k)
		}
		for _, k := range d.Added {
			fmt.Fprintf(w, "+ %s\n", k)
		}
		for _, c := range d.Changed {
			fmt.Fprintf(w, "~ %s %s -> %s\n", c.Key, c.From, c.To)
		}
	})
}
