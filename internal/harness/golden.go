package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a report as stable text: one line per case in
// materialized order, then the totals. Interpreter output and error text
// are left out because they usually carry paths that differ between
// machines.
//
//	0001 pass  reference/4.2/1a_ValidLogonWithCorrectMsgSeqNum.def
//	0002 fail  custom/4.2/2b_MsgSeqNumTooHigh.def
//	total=2 passed=1 failed=1 errored=0
func Snapshot(report *Report) []byte {
	var buf bytes.Buffer
	for _, res := range report.Results {
		fmt.Fprintf(&buf, "%04d %-5s %s\n", res.Seq, res.Status, res.Key())
	}
	fmt.Fprintf(&buf, "total=%d passed=%d failed=%d errored=%d\n",
		report.Total(), report.Passed, report.Failed, report.Errored)
	return buf.Bytes()
}

// AssertGolden compares the report snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, report *Report) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(report))
}
