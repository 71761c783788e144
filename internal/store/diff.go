package store

import (
	"context"
	"fmt"
)

// StatusChange is a case present in both runs whose outcome differs.
type StatusChange struct {
	Key  string `json:"key"`
	From string `json:"from"`
	To   string `json:"to"`
}

// RunDiff compares two runs case by case.
type RunDiff struct {
	From string `json:"from"`
	To   string `json:"to"`

	// SameEnumeration is true when both runs have the same fingerprint.
	SameEnumeration bool `json:"same_enumeration"`

	// Added lists case keys only in the second run, in its order.
	Added []string `json:"added"`

	// Removed lists case keys only in the first run, in its order.
	Removed []string `json:"removed"`

	// Changed lists cases whose status differs, in the second run's order.
	Changed []StatusChange `json:"changed"`
}

// Empty reports whether the runs match case for case.
func (d *RunDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares run a with run b.
func (s *Store) Diff(ctx context.Context, a, b string) (*RunDiff, error) {
	runA, err := s.GetRun(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	runB, err := s.GetRun(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	casesA, err := s.RunCases(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	casesB, err := s.RunCases(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	d := &RunDiff{
		From:            runA.ID,
		To:              runB.ID,
		SameEnumeration: runA.Fingerprint == runB.Fingerprint,
		Added:           []string{},
		Removed:         []string{},
		Changed:         []StatusChange{},
	}

	inA := make(map[string]string, len(casesA))
	for _, c := range casesA {
		inA[c.Key()] = c.Status
	}
	inB := make(map[string]bool, len(casesB))
	for _, c := range casesB {
		key := c.Key()
		inB[key] = true
		from, ok := inA[key]
		switch {
		case !ok:
			d.Added = append(d.Added, key)
		case from != c.Status:
			d.Changed = append(d.Changed, StatusChange{Key: key, From: from, To: c.Status})
		}
	}
	for _, c := range casesA {
		if !inB[c.Key()] {
			d.Removed = append(d.Removed, c.Key())
		}
	}

	return d, nil
}
