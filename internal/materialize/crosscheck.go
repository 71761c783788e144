package materialize

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fixaccept/internal/policy"
	"github.com/roach88/fixaccept/internal/scenario"
)

// Finding is one identifier flagged by CrossCheck.
type Finding struct {
	Root scenario.RootKey `json:"root"`
	ID   string           `json:"id"`
	Note string           `json:"note,omitempty"`
}

// Report is the result of cross-checking the policy against the corpora.
type Report struct {
	// Dangling lists included identifiers that were not discovered in any
	// root of the same corpus. They are skipped silently by Materialize.
	Dangling []Finding `json:"dangling"`

	// Shadowed lists included identifiers that are also globally
	// excluded. The exclusion wins; the inclusion entry is dead.
	Shadowed []Finding `json:"shadowed"`

	// Unreviewed lists discovered identifiers that appear in no list.
	Unreviewed []Finding `json:"unreviewed"`

	// Pending lists pending identifiers that are present on disk.
	Pending []Finding `json:"pending"`

	// NotNFC lists configured identifiers that are not in Unicode NFC.
	// Matching is exact, so such entries only match file names that use
	// the same decomposed form.
	NotNFC []Finding `json:"not_nfc"`

	Discovered int `json:"discovered"`
	Included   int `json:"included"`
}

// Clean reports whether the policy has no dangling or shadowed entries.
func (r *Report) Clean() bool {
	return len(r.Dangling) == 0 && len(r.Shadowed) == 0
}

// CrossCheck compares each source's lists with what is on disk.
//
// An inclusion entry counts as present if any source of the same corpus
// discovered it, whatever the version. Discovery errors are fatal, as in
// Materialize.
func CrossCheck(sources []Source, pol *policy.Policy, d scenario.Discoverer) (*Report, error) {
	report := &Report{
		Dangling:   []Finding{},
		Shadowed:   []Finding{},
		Unreviewed: []Finding{},
		Pending:    []Finding{},
		NotNFC:     []Finding{},
	}

	discovered := make([][]string, len(sources))
	present := make(map[scenario.Corpus]map[string]bool)
	for i, src := range sources {
		ids, err := d.Discover(src.Root)
		if err != nil {
			return nil, err
		}
		discovered[i] = ids
		report.Discovered += len(ids)

		seen := present[src.Root.Corpus]
		if seen == nil {
			seen = make(map[string]bool)
			present[src.Root.Corpus] = seen
		}
		for _, id := range ids {
			seen[id] = true
		}
	}

	exclusions := pol.Exclusions()
	for _, e := range exclusions.Entries() {
		if !norm.NFC.IsNormalString(e.ID) {
			report.NotNFC = append(report.NotNFC, Finding{ID: e.ID, Note: "exclusion"})
		}
	}

	for i, src := range sources {
		key := src.Root.Key()

		for _, e := range pol.Inclusion(key).Entries() {
			if !present[src.Root.Corpus][e.ID] {
				report.Dangling = append(report.Dangling, Finding{Root: key, ID: e.ID, Note: e.Note})
			}
			if ex, ok := exclusions.Lookup(e.ID); ok {
				report.Shadowed = append(report.Shadowed, Finding{Root: key, ID: e.ID, Note: string(ex.Reason)})
			}
			if !norm.NFC.IsNormalString(e.ID) {
				report.NotNFC = append(report.NotNFC, Finding{Root: key, ID: e.ID, Note: "include"})
			}
		}
		for _, e := range pol.Pending(key).Entries() {
			if !norm.NFC.IsNormalString(e.ID) {
				report.NotNFC = append(report.NotNFC, Finding{Root: key, ID: e.ID, Note: "pending"})
			}
		}

		for _, id := range discovered[i] {
			decision := pol.Explain(id, key)
			switch decision.Verdict {
			case policy.VerdictIncluded:
				report.Included++
			case policy.VerdictPending:
				report.Pending = append(report.Pending, Finding{Root: key, ID: id, Note: decision.Note})
			case policy.VerdictUnreviewed:
				report.Unreviewed = append(report.Unreviewed, Finding{Root: key, ID: id})
			}
		}
	}

	return report, nil
}
