// Package config loads the scenario selection policy.
//
// A policy file declares the global exclusions and, per root, the
// directory to scan and the inclusion and pending lists:
//
//	exclusions:
//	  - id: 2d_GarbledMessage.def
//	    reason: ambiguous
//	    note: "ignore if garbled, or disconnect?"
//	roots:
//	  - corpus: reference
//	    version: "4.2"
//	    dir: quickfix/fix42
//	    environment: "4.2"
//	    include:
//	      - id: 1a_ValidLogonWithCorrectMsgSeqNum.def
//	    pending:
//	      - id: 8_OnlyAdminMessages.def
//
// Files are decoded strictly: unknown fields are rejected so that a typo
// such as "inclde:" fails loudly instead of silently emptying a list.
// Identifiers are kept byte-for-byte; nothing is trimmed or folded.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/fixaccept/internal/policy"
	"github.com/roach88/fixaccept/internal/scenario"
)

// File is a decoded policy file.
type File struct {
	// Exclusions is the global deny-list.
	Exclusions []ExclusionSpec `yaml:"exclusions"`

	// Roots lists the scenario directories in execution order.
	Roots []RootSpec `yaml:"roots"`
}

// ExclusionSpec is one global exclusion.
type ExclusionSpec struct {
	ID     string `yaml:"id"`
	Reason string `yaml:"reason"`
	Note   string `yaml:"note,omitempty"`
}

// EntrySpec is one inclusion or pending entry.
type EntrySpec struct {
	ID   string `yaml:"id"`
	Note string `yaml:"note,omitempty"`
}

// RootSpec declares one scenario root.
type RootSpec struct {
	// Corpus is "reference" or "custom".
	Corpus string `yaml:"corpus"`

	// Version is the protocol version tag, e.g. "4.2".
	Version string `yaml:"version"`

	// Dir is the scenario directory. Relative paths are resolved against
	// the corpus base directory.
	Dir string `yaml:"dir"`

	// Environment overrides the environment tag. Defaults to Version.
	Environment string `yaml:"environment,omitempty"`

	// Include is the opt-in list of scenarios to run from this root.
	Include []EntrySpec `yaml:"include"`

	// Pending lists scenarios under review. They are never run.
	Pending []EntrySpec `yaml:"pending,omitempty"`
}

// Key returns the policy key of the root.
func (r RootSpec) Key() scenario.RootKey {
	return scenario.RootKey{Corpus: scenario.Corpus(r.Corpus), Version: r.Version}
}

// EnvironmentTag returns the environment tag the root's scenarios bind to.
func (r RootSpec) EnvironmentTag() string {
	if r.Environment != "" {
		return r.Environment
	}
	return r.Version
}

// Root resolves r into a scenario root under base.
func (r RootSpec) Root(base string) scenario.Root {
	dir := r.Dir
	if !filepath.IsAbs(dir) && base != "" {
		dir = filepath.Join(base, dir)
	}
	return scenario.Root{Corpus: scenario.Corpus(r.Corpus), Version: r.Version, Dir: dir}
}

// Validate checks structural rules that strict decoding cannot express.
func (f *File) Validate() error {
	if len(f.Roots) == 0 {
		return fmt.Errorf("roots list is required and must be non-empty")
	}

	if _, err := f.exclusionSet(); err != nil {
		return err
	}

	seen := make(map[scenario.RootKey]int, len(f.Roots))
	for i, r := range f.Roots {
		if !scenario.Corpus(r.Corpus).Valid() {
			return fmt.Errorf("roots[%d]: unknown corpus %q (must be one of %v)", i, r.Corpus, scenario.Corpora)
		}
		if r.Version == "" {
			return fmt.Errorf("roots[%d]: version is required", i)
		}
		if r.Dir == "" {
			return fmt.Errorf("roots[%d]: dir is required", i)
		}
		if prev, dup := seen[r.Key()]; dup {
			return fmt.Errorf("roots[%d]: duplicate root %s (also roots[%d])", i, r.Key(), prev)
		}
		seen[r.Key()] = i

		if _, err := r.rules(); err != nil {
			return fmt.Errorf("roots[%d] %s: %w", i, r.Key(), err)
		}
	}

	return nil
}

// Policy builds the immutable inclusion policy described by the file.
func (f *File) Policy() (*policy.Policy, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	exclusions, err := f.exclusionSet()
	if err != nil {
		return nil, err
	}

	roots := make(map[scenario.RootKey]policy.RootRules, len(f.Roots))
	for _, r := range f.Roots {
		rules, err := r.rules()
		if err != nil {
			return nil, err
		}
		roots[r.Key()] = rules
	}

	return policy.New(exclusions, roots), nil
}

func (f *File) exclusionSet() (policy.ExclusionSet, error) {
	entries := make([]policy.Exclusion, len(f.Exclusions))
	for i, e := range f.Exclusions {
		entries[i] = policy.Exclusion{ID: e.ID, Reason: policy.Reason(e.Reason), Note: e.Note}
	}
	return policy.NewExclusionSet(entries...)
}

func (r RootSpec) rules() (policy.RootRules, error) {
	include, err := policy.NewEntrySet(toEntries(r.Include)...)
	if err != nil {
		return policy.RootRules{}, fmt.Errorf("include: %w", err)
	}
	pending, err := policy.NewEntrySet(toEntries(r.Pending)...)
	if err != nil {
		return policy.RootRules{}, fmt.Errorf("pending: %w", err)
	}
	for _, id := range pending.IDs() {
		if include.Contains(id) {
			return policy.RootRules{}, fmt.Errorf("%q is both included and pending", id)
		}
	}
	return policy.RootRules{Include: include, Pending: pending}, nil
}

func toEntries(specs []EntrySpec) []policy.Entry {
	out := make([]policy.Entry, len(specs))
	for i, s := range specs {
		out[i] = policy.Entry{ID: s.ID, Note: s.Note}
	}
	return out
}
