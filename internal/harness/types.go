package harness

import (
	"github.com/roach88/fixaccept/internal/scenario"
)

// Status is the outcome of one case.
type Status string

const (
	// StatusPassed means the executor returned nil.
	StatusPassed Status = "pass"

	// StatusFailed means the executor returned a *ScenarioFailure.
	StatusFailed Status = "fail"

	// StatusError means the case could not be executed: the environment
	// factory failed, the executor failed for a reason other than a
	// scenario mismatch, or the run was cancelled first.
	StatusError Status = "error"
)

// CaseResult is the outcome of a single case.
type CaseResult struct {
	// Seq is the case's position in the materialized list, starting at 1.
	Seq int64 `json:"seq"`

	Root        scenario.RootKey `json:"root"`
	Identifier  string           `json:"identifier"`
	Environment string           `json:"environment"`
	Status      Status           `json:"status"`

	// Error holds the failure message. Empty if Status is StatusPassed.
	Error string `json:"error,omitempty"`

	// Output holds interpreter output kept from a failure.
	Output string `json:"output,omitempty"`
}

// Key renders the result as "corpus/version/identifier".
func (r CaseResult) Key() string {
	return r.Root.String() + "/" + r.Identifier
}

// Report is the outcome of a run.
type Report struct {
	// Results are in materialized order.
	Results []CaseResult `json:"results"`

	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{Results: []CaseResult{}}
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// Total is the number of cases in the report.
func (r *Report) Total() int {
	return len(r.Results)
}

func (r *Report) add(res CaseResult) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusPassed:
		r.Passed++
	case StatusFailed:
		r.Failed++
	default:
		r.Errored++
	}
}
