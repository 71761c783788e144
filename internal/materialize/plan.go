package materialize

import (
	"github.com/roach88/fixaccept/internal/config"
	"github.com/roach88/fixaccept/internal/environment"
	"github.com/roach88/fixaccept/internal/policy"
)

// Plan converts a policy file into ordered sources and the policy.
//
// Every environment tag is resolved before any source is returned, so an
// unregistered tag fails here with *environment.UnknownEnvironmentError
// and no discovery runs. Relative root directories are resolved against
// base.
func Plan(cfg *config.File, base string, reg *environment.Registry) ([]Source, *policy.Policy, error) {
	pol, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}

	factories := make([]environment.Factory, len(cfg.Roots))
	for i, r := range cfg.Roots {
		factory, err := reg.Resolve(r.EnvironmentTag())
		if err != nil {
			return nil, nil, err
		}
		factories[i] = factory
	}

	sources := make([]Source, len(cfg.Roots))
	for i, r := range cfg.Roots {
		sources[i] = Source{
			Root:           r.Root(base),
			EnvironmentTag: r.EnvironmentTag(),
			Factory:        factories[i],
		}
	}

	return sources, pol, nil
}
