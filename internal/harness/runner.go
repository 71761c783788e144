package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/fixaccept/internal/environment"
	"github.com/roach88/fixaccept/internal/materialize"
)

// Executor runs one scenario definition against the system under test.
//
// Run returns nil when the scenario passes and a *ScenarioFailure when
// the observed traffic does not match. Any other error means the
// scenario could not be executed at all.
type Executor interface {
	Run(ctx context.Context, location, identifier string, env *environment.Environment) error
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, location, identifier string, env *environment.Environment) error

// Run calls f.
func (f ExecutorFunc) Run(ctx context.Context, location, identifier string, env *environment.Environment) error {
	return f(ctx, location, identifier, env)
}

// Runner executes materialized cases.
type Runner struct {
	Executor Executor

	// Workers bounds how many cases run at once. Values below 1 mean 1.
	Workers int

	Logger *slog.Logger

	// OnResult, if set, is called once per case as soon as it finishes.
	// Calls may come from several goroutines at once.
	OnResult func(CaseResult)
}

// NewRunner creates a sequential runner with logging discarded.
func NewRunner(exec Executor) *Runner {
	return &Runner{
		Executor: exec,
		Workers:  1,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run executes every case and returns the report.
//
// Case failures are recorded in the report and never stop the run. If
// ctx is cancelled, cases that have not started are recorded as errors
// and ctx.Err() is returned alongside the complete report.
func (r *Runner) Run(ctx context.Context, cases []materialize.Case) (*Report, error) {
	if r.Executor == nil {
		return nil, fmt.Errorf("harness: executor is required")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	// Each goroutine writes only its own slot.
	results := make([]CaseResult, len(cases))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range cases {
		g.Go(func() error {
			res := r.runCase(ctx, logger, int64(i+1), c)
			results[i] = res
			if r.OnResult != nil {
				r.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := NewReport()
	for _, res := range results {
		report.add(res)
	}

	logger.Info("run finished",
		"cases", report.Total(),
		"passed", report.Passed,
		"failed", report.Failed,
		"errored", report.Errored,
	)

	return report, ctx.Err()
}

func (r *Runner) runCase(ctx context.Context, logger *slog.Logger, seq int64, c materialize.Case) CaseResult {
	res := CaseResult{
		Seq:         seq,
		Root:        c.Root.Key(),
		Identifier:  c.Identifier,
		Environment: c.EnvironmentTag,
	}
	log := logger.With("case", c.String(), "seq", seq)

	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.Error = fmt.Sprintf("not started: %v", err)
		return res
	}

	if c.Environment == nil {
		res.Status = StatusError
		res.Error = "no environment factory bound"
		log.Error("case not runnable", "error", res.Error)
		return res
	}
	env, err := c.Environment()
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		log.Error("environment construction failed", "error", err)
		return res
	}

	log.Debug("running case", "location", c.Location, "begin_string", env.BeginString)

	err = r.Executor.Run(ctx, c.Location, c.Identifier, env)
	if err == nil {
		res.Status = StatusPassed
		log.Debug("case passed")
		return res
	}

	res.Error = err.Error()
	var sf *ScenarioFailure
	if errors.As(err, &sf) {
		res.Status = StatusFailed
		res.Output = sf.Output
		log.Warn("case failed", "error", err)
	} else {
		res.Status = StatusError
		log.Error("case errored", "error", err)
	}
	return res
}
