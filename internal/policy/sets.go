package policy

import (
	"fmt"
)

// Reason classifies why a scenario is globally out of scope.
type Reason string

const (
	// Ambiguous marks scenarios whose required behavior is unclear and
	// awaits feedback.
	Ambiguous Reason = "ambiguous"

	// CoveredElsewhere marks scenarios whose behavior is verified by
	// other tests, e.g. validation integration tests.
	CoveredElsewhere Reason = "covered-elsewhere"

	// BusinessDomain marks scenarios that assume application-level
	// message handling the session engine does not model.
	BusinessDomain Reason = "business-domain"

	// CustomerDeviation marks scenarios where customers asked for the
	// opposite of the reference behavior.
	CustomerDeviation Reason = "customer-deviation"
)

// Reasons lists every valid exclusion reason.
var Reasons = []Reason{Ambiguous, CoveredElsewhere, BusinessDomain, CustomerDeviation}

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	for _, known := range Reasons {
		if r == known {
			return true
		}
	}
	return false
}

// Exclusion is one entry of the global deny-list.
type Exclusion struct {
	ID     string `json:"id"`
	Reason Reason `json:"reason"`
	Note   string `json:"note,omitempty"`
}

// Entry is one entry of an inclusion or pending list.
type Entry struct {
	ID   string `json:"id"`
	Note string `json:"note,omitempty"`
}

// ExclusionSet is an immutable, ordered set of exclusions.
// The zero value is an empty set.
type ExclusionSet struct {
	entries []Exclusion
	index   map[string]int
}

// NewExclusionSet builds a set from entries, preserving their order.
// Empty identifiers, unknown reasons and duplicates are rejected.
func NewExclusionSet(entries ...Exclusion) (ExclusionSet, error) {
	set := ExclusionSet{
		entries: make([]Exclusion, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.ID == "" {
			return ExclusionSet{}, fmt.Errorf("exclusions[%d]: id is required", i)
		}
		if !e.Reason.Valid() {
			return ExclusionSet{}, fmt.Errorf("exclusions[%d] %s: unknown reason %q (must be one of %v)", i, e.ID, e.Reason, Reasons)
		}
		if _, dup := set.index[e.ID]; dup {
			return ExclusionSet{}, fmt.Errorf("exclusions[%d]: duplicate id %q", i, e.ID)
		}
		set.index[e.ID] = len(set.entries)
		set.entries = append(set.entries, e)
	}
	return set, nil
}

// MustExclusionSet is like NewExclusionSet but panics on error.
// Use only for static tables known to be valid.
func MustExclusionSet(entries ...Exclusion) ExclusionSet {
	set, err := NewExclusionSet(entries...)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains reports whether id is excluded. Matching is exact.
func (s ExclusionSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Lookup returns the exclusion for id.
func (s ExclusionSet) Lookup(id string) (Exclusion, bool) {
	i, ok := s.index[id]
	if !ok {
		return Exclusion{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy of the exclusions in declaration order.
func (s ExclusionSet) Entries() []Exclusion {
	out := make([]Exclusion, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of exclusions.
func (s ExclusionSet) Len() int {
	return len(s.entries)
}

// EntrySet is an immutable, ordered set of identifiers with notes.
// It backs both inclusion and pending lists. The zero value is empty.
type EntrySet struct {
	entries []Entry
	index   map[string]int
}

// InclusionSet is the opt-in allow-list of one root.
type InclusionSet = EntrySet

// NewEntrySet builds a set from entries, preserving their order.
// Empty identifiers and duplicates are rejected.
func NewEntrySet(entries ...Entry) (EntrySet, error) {
	set := EntrySet{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.ID == "" {
			return EntrySet{}, fmt.Errorf("entries[%d]: id is required", i)
		}
		if _, dup := set.index[e.ID]; dup {
			return EntrySet{}, fmt.Errorf("entries[%d]: duplicate id %q", i, e.ID)
		}
		set.index[e.ID] = len(set.entries)
		set.entries = append(set.entries, e)
	}
	return set, nil
}

// MustEntrySet is like NewEntrySet but panics on error.
func MustEntrySet(entries ...Entry) EntrySet {
	set, err := NewEntrySet(entries...)
	if err != nil {
		panic(err)
	}
	return set
}

// IDs builds an EntrySet from bare identifiers.
func IDs(ids ...string) EntrySet {
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id}
	}
	return MustEntrySet(entries...)
}

// Contains reports whether id is in the set. Matching is exact.
func (s EntrySet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Lookup returns the entry for id.
func (s EntrySet) Lookup(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a copy of the entries in declaration order.
func (s EntrySet) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the identifiers in declaration order.
func (s EntrySet) IDs() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ID
	}
	return out
}

// Len returns the number of entries.
func (s EntrySet) Len() int {
	return len(s.entries)
}
