package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fixaccept/internal/harness"
	"github.com/roach88/fixaccept/internal/materialize"
	"github.com/roach88/fixaccept/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Interpreter string
	Args        []string
	Workers     int
	Database    string
	Where       string
}

// RunResult is the output of the run command.
type RunResult struct {
	Config      string          `json:"config"`
	RunID       string          `json:"run_id,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Report      *harness.Report `json:"report"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selected cases through a FIX interpreter",
		Long: `Materialize the cases and run each one through an external
interpreter. The interpreter is invoked once per case with the
scenario path as its last argument and the session settings in
FIXACCEPT_* environment variables.

With --db, the run and every result are recorded as they finish.

Exit codes:
  0 - Every case passed
  1 - At least one case failed or could not run
  2 - Command error

Examples:
  fixaccept run --interpreter ./bin/at --corpus ./definitions
  fixaccept run --interpreter ruby --arg runner.rb --workers 4 --db runs.db
  fixaccept run --interpreter ./bin/at --where 'id startsWith "1"'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runRun(cmd, opts, f))
		},
	}

	cmd.Flags().StringVarP(&opts.Interpreter, "interpreter", "i", "", "interpreter binary (required)")
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "argument passed before the scenario path (repeatable)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "cases run at once")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "selector expression to narrow the run")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions, f *OutputFormatter) error {
	if opts.Interpreter == "" {
		return codedExitError(ExitCommandError, ErrCodeCommand, "--interpreter is required", nil)
	}
	if opts.Workers < 1 {
		return codedExitError(ExitCommandError, ErrCodeCommand,
			fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers), nil)
	}

	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	p, err := loadPipeline(opts.RootOptions)
	if err != nil {
		return err
	}
	cases, err := p.cases(opts.Where)
	if err != nil {
		return err
	}
	fingerprint := materialize.Fingerprint(cases)
	logger.Info("cases materialized", "count", len(cases), "fingerprint", fingerprint, "config", p.ConfigName)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	runner := harness.NewRunner(&harness.CommandExecutor{Path: opts.Interpreter, Args: opts.Args})
	runner.Workers = opts.Workers
	runner.Logger = logger

	result := RunResult{Config: p.ConfigName, Fingerprint: fingerprint}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return codedExitError(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		run, err := st.RecordRun(ctx, store.Run{
			Config:      p.ConfigName,
			Selector:    opts.Where,
			Fingerprint: fingerprint,
		}, caseRecords(cases))
		if err != nil {
			return codedExitError(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		result.RunID = run.ID
		logger.Info("run recorded", "run", run.ID, "seq", run.Seq, "db", opts.Database)

		runner.OnResult = func(res harness.CaseResult) {
			// Use the parent context so results of a cancelled run are kept.
			if err := st.RecordResult(parentCtx, store.ResultRecord{
				RunID:  run.ID,
				Seq:    res.Seq,
				Status: string(res.Status),
				Error:  res.Error,
				Output: res.Output,
			}); err != nil {
				logger.Error("failed to record result", "case", res.Key(), "error", err)
			}
		}
	}

	report, runErr := runner.Run(ctx, cases)
	result.Report = report
	if runErr != nil {
		logger.Info("run cancelled", "error", runErr)
	}

	text := func(w io.Writer) { writeRunReport(w, result) }
	if !report.OK() {
		return f.EmitFailure(ErrCodeRunFailed,
			fmt.Sprintf("%d failed, %d errored of %d", report.Failed, report.Errored, report.Total()),
			ExitFailure, result, text)
	}
	return f.Emit(result, text)
}

func caseRecords(cases []materialize.Case) []store.CaseRecord {
	records := make([]store.CaseRecord, len(cases))
	for i, c := range cases {
		records[i] = store.CaseRecord{
			Seq:         int64(i + 1),
			Corpus:      string(c.Root.Corpus),
			Version:     c.Root.Version,
			Identifier:  c.Identifier,
			Environment: c.EnvironmentTag,
		}
	}
	return records
}

func writeRunReport(w io.Writer, result RunResult) {
	for _, r := range result.Report.Results {
		mark := "✓"
		if r.Status != harness.StatusPassed {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %-5s %s\n", mark, r.Status, r.Key())
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", r.Error)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d errored\n",
		result.Report.Passed, result.Report.Failed, result.Report.Errored)
	if result.RunID != "" {
		fmt.Fprintf(w, "run %s\n", result.RunID)
	}
}
