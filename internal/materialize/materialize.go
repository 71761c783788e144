// Package materialize turns the scenario corpora and the inclusion policy
// into the ordered list of acceptance cases to execute.
//
// The pipeline has three stages:
//
//	Discovery (I/O) -> Policy filter (pure) -> Environment bind (pure)
//
// Discovery is injected through scenario.Discoverer, so the filter and
// bind stages can be tested against a fixed candidate set.
//
// # Ordering
//
// Sources are processed in the order the caller declares them. Within a
// source, cases follow the discoverer's order, which for the directory
// discoverer is byte-wise lexicographic. The same filesystem and
// configuration therefore always produce the same list, and Fingerprint
// summarizes it so enumeration changes show up in run history.
package materialize

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/fixaccept/internal/environment"
	"github.com/roach88/fixaccept/internal/policy"
	"github.com/roach88/fixaccept/internal/scenario"
)

// Source binds a scenario root to the environment its scenarios run in.
type Source struct {
	Root           scenario.Root
	EnvironmentTag string
	Factory        environment.Factory
}

// Case is one executable acceptance test: a scenario bound to the factory
// for its environment. Cases are values and are never modified after
// Materialize returns them.
type Case struct {
	Root           scenario.Root       `json:"root"`
	Location       string              `json:"location"`
	Identifier     string              `json:"identifier"`
	EnvironmentTag string              `json:"environment"`
	Environment    environment.Factory `json:"-"`
}

// Path returns the scenario file path.
func (c Case) Path() string {
	return filepath.Join(c.Location, c.Identifier)
}

// String renders the case as "corpus/version/identifier".
func (c Case) String() string {
	return c.Root.Key().String() + "/" + c.Identifier
}

// Materialize enumerates the cases for sources in order.
//
// For each source it discovers the scenarios present, keeps those the
// policy includes for the source's root, and binds each survivor to the
// source's environment factory. A discovery failure aborts the whole
// call and no partial list is returned. Included identifiers that are
// not on disk are skipped without error.
func Materialize(sources []Source, pol *policy.Policy, d scenario.Discoverer) ([]Case, error) {
	if pol == nil {
		return nil, fmt.Errorf("materialize: policy is required")
	}

	cases := []Case{}
	for i, src := range sources {
		if src.Factory == nil {
			return nil, fmt.Errorf("materialize: sources[%d] %s: environment factory is nil", i, src.Root)
		}

		ids, err := d.Discover(src.Root)
		if err != nil {
			return nil, err
		}

		key := src.Root.Key()
		for _, id := range ids {
			if !pol.Include(id, key) {
				continue
			}
			cases = append(cases, Case{
				Root:           src.Root,
				Location:       src.Root.Dir,
				Identifier:     id,
				EnvironmentTag: src.EnvironmentTag,
				Environment:    src.Factory,
			})
		}
	}

	return cases, nil
}
