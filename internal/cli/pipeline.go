package cli

import (
	"errors"

	"github.com/roach88/fixaccept/internal/config"
	"github.com/roach88/fixaccept/internal/environment"
	"github.com/roach88/fixaccept/internal/materialize"
	"github.com/roach88/fixaccept/internal/policy"
	"github.com/roach88/fixaccept/internal/scenario"
	"github.com/roach88/fixaccept/internal/selector"
)

// pipeline is the loaded selection setup shared by the commands.
type pipeline struct {
	ConfigName string
	Config     *config.File
	Sources    []materialize.Source
	Policy     *policy.Policy
	Discoverer scenario.Discoverer
}

// loadPipeline reads the policy and resolves every root's environment.
// Nothing on disk besides the policy file is touched yet.
func loadPipeline(opts *RootOptions) (*pipeline, error) {
	cfg, name, err := config.LoadOrBuiltin(opts.Config)
	if err != nil {
		return nil, codedExitError(ExitCommandError, ErrCodeConfig, "failed to load policy", err)
	}

	sources, pol, err := materialize.Plan(cfg, opts.Corpus, environment.Default())
	if err != nil {
		return nil, classify(err)
	}

	return &pipeline{
		ConfigName: name,
		Config:     cfg,
		Sources:    sources,
		Policy:     pol,
		Discoverer: scenario.NewDirDiscoverer(),
	}, nil
}

// cases materializes the cases and applies the selector expression.
func (p *pipeline) cases(where string) ([]materialize.Case, error) {
	sel, err := selector.Compile(where)
	if err != nil {
		return nil, codedExitError(ExitCommandError, ErrCodeSelector, "invalid --where expression", err)
	}

	all, err := materialize.Materialize(p.Sources, p.Policy, p.Discoverer)
	if err != nil {
		return nil, classify(err)
	}

	selected, err := sel.Select(all)
	if err != nil {
		return nil, codedExitError(ExitCommandError, ErrCodeSelector, "selector evaluation failed", err)
	}
	return selected, nil
}

// classify maps pipeline errors to command errors.
func classify(err error) error {
	switch {
	case errors.Is(err, environment.ErrUnknownEnvironment):
		return codedExitError(ExitCommandError, ErrCodeUnknownEnvironment, "unknown environment", err)
	case scenario.IsFileSystemError(err):
		return codedExitError(ExitCommandError, ErrCodeDiscovery, "failed to read scenario root", err)
	default:
		return codedExitError(ExitCommandError, ErrCodeConfig, "invalid policy", err)
	}
}
