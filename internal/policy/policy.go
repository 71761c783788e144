// Package policy decides which acceptance scenarios run.
//
// The decision is two-tier:
//
//  1. A single global exclusion set names scenarios that are permanently
//     out of scope, each with a documented reason. It applies to every
//     root and always wins.
//  2. Each root (corpus × version) has an opt-in inclusion set naming the
//     scenarios this engine currently claims to support.
//
// A scenario found in neither set is not run. Default-deny is a policy
// choice, not an accident of the data: the reference corpus holds many
// scenarios outside the engine's scope, so an unreviewed scenario must
// stay off until someone adds it to an inclusion set. The choice is
// exported as DefaultDecision so callers and tests can assert on it.
//
// Per-root pending lists record scenarios that are under review. They
// never change the decision; they only let reports tell "queued for
// review" apart from "never looked at".
package policy

import (
	"sort"

	"github.com/roach88/fixaccept/internal/scenario"
)

// DefaultDecision is the decision for identifiers in no set.
const DefaultDecision = false

// Verdict names the rule that produced a decision.
type Verdict string

const (
	VerdictExcluded   Verdict = "excluded"
	VerdictIncluded   Verdict = "included"
	VerdictPending    Verdict = "pending"
	VerdictUnreviewed Verdict = "unreviewed"
)

// RootRules holds the per-root lists.
type RootRules struct {
	Include InclusionSet
	Pending EntrySet
}

// Policy is the immutable inclusion policy.
type Policy struct {
	exclusions ExclusionSet
	roots      map[scenario.RootKey]RootRules
}

// New builds a policy. The roots map is copied; later changes by the
// caller do not affect the policy.
func New(exclusions ExclusionSet, roots map[scenario.RootKey]RootRules) *Policy {
	copied := make(map[scenario.RootKey]RootRules, len(roots))
	for k, v := range roots {
		copied[k] = v
	}
	return &Policy{exclusions: exclusions, roots: copied}
}

// Include reports whether the scenario id from the given root runs.
//
// Exclusion dominates: an excluded id is rejected even when the root's
// inclusion set lists it. Otherwise the id runs only if the root's
// inclusion set lists it.
func (p *Policy) Include(id string, root scenario.RootKey) bool {
	if p.exclusions.Contains(id) {
		return false
	}
	rules, ok := p.roots[root]
	if !ok {
		return DefaultDecision
	}
	if rules.Include.Contains(id) {
		return true
	}
	return DefaultDecision
}

// Decision explains the outcome of Include for one identifier.
type Decision struct {
	ID        string           `json:"id"`
	Root      scenario.RootKey `json:"root"`
	Include   bool             `json:"include"`
	Verdict   Verdict          `json:"verdict"`
	Exclusion *Exclusion       `json:"exclusion,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// Explain returns the decision for id in root together with the rule
// that produced it. Explain(id, root).Include always equals
// Include(id, root).
func (p *Policy) Explain(id string, root scenario.RootKey) Decision {
	d := Decision{ID: id, Root: root}

	if ex, ok := p.exclusions.Lookup(id); ok {
		d.Verdict = VerdictExcluded
		d.Exclusion = &ex
		d.Note = ex.Note
		return d
	}

	rules := p.roots[root]
	if e, ok := rules.Include.Lookup(id); ok {
		d.Include = true
		d.Verdict = VerdictIncluded
		d.Note = e.Note
		return d
	}
	if e, ok := rules.Pending.Lookup(id); ok {
		d.Include = DefaultDecision
		d.Verdict = VerdictPending
		d.Note = e.Note
		return d
	}

	d.Include = DefaultDecision
	d.Verdict = VerdictUnreviewed
	return d
}

// Exclusions returns the global exclusion set.
func (p *Policy) Exclusions() ExclusionSet {
	return p.exclusions
}

// Inclusion returns the inclusion set for root (empty if unknown).
func (p *Policy) Inclusion(root scenario.RootKey) InclusionSet {
	return p.roots[root].Include
}

// Pending returns the pending list for root (empty if unknown).
func (p *Policy) Pending(root scenario.RootKey) EntrySet {
	return p.roots[root].Pending
}

// Roots returns the keys with rules, sorted by corpus then version.
func (p *Policy) Roots() []scenario.RootKey {
	keys := make([]scenario.RootKey, 0, len(p.roots))
	for k := range p.roots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Corpus != keys[j].Corpus {
			return keys[i].Corpus < keys[j].Corpus
		}
		return keys[i].Version < keys[j].Version
	})
	return keys
}
