package harness

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixaccept/internal/environment"
	"github.com/roach88/fixaccept/internal/materialize"
	"github.com/roach88/fixaccept/internal/scenario"
)

var (
	refRoot    = scenario.Root{Corpus: scenario.Reference, Version: "4.2", Dir: "/corpus/quickfix/fix42"}
	customRoot = scenario.Root{Corpus: scenario.Custom, Version: "4.2", Dir: "/corpus/custom/fix42"}
)

func fixedFactory() (*environment.Environment, error) {
	return &environment.Environment{
		Version:     "4.2",
		BeginString: "FIX.4.2",
		Session:     environment.AcceptanceSession,
	}, nil
}

func testCase(root scenario.Root, id string) materialize.Case {
	return materialize.Case{
		Root:           root,
		Location:       root.Dir,
		Identifier:     id,
		EnvironmentTag: "4.2",
		Environment:    fixedFactory,
	}
}

func keys(report *Report) []string {
	out := make([]string, len(report.Results))
	for i, r := range report.Results {
		out[i] = r.Key()
	}
	return out
}

func passAll() Executor {
	return ExecutorFunc(func(context.Context, string, string, *environment.Environment) error {
		return nil
	})
}

func TestRunner_AllPass(t *testing.T) {
	cases := []materialize.Case{
		testCase(refRoot, "A.def"),
		testCase(customRoot, "B.def"),
	}

	report, err := NewRunner(passAll()).Run(context.Background(), cases)
	require.NoError(t, err)

	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, []string{"reference/4.2/A.def", "custom/4.2/B.def"}, keys(report))
	assert.Equal(t, int64(1), report.Results[0].Seq)
	assert.Equal(t, int64(2), report.Results[1].Seq)
	assert.Equal(t, "4.2", report.Results[1].Environment)
}

func TestRunner_FailuresAreIsolated(t *testing.T) {
	var calls atomic.Int32
	exec := ExecutorFunc(func(_ context.Context, location, id string, _ *environment.Environment) error {
		calls.Add(1)
		switch id {
		case "B.def":
			return &ScenarioFailure{Location: location, Identifier: id, Output: "expected 35=0"}
		case "C.def":
			return errors.New("connection refused")
		}
		return nil
	})

	cases := []materialize.Case{
		testCase(refRoot, "A.def"),
		testCase(refRoot, "B.def"),
		testCase(refRoot, "C.def"),
		testCase(refRoot, "D.def"),
	}

	report, err := NewRunner(exec).Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, int32(4), calls.Load(), "every case runs")
	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Errored)

	assert.Equal(t, StatusPassed, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.Equal(t, "expected 35=0", report.Results[1].Output)
	assert.Contains(t, report.Results[1].Error, "B.def")
	assert.Equal(t, StatusError, report.Results[2].Status)
	assert.Equal(t, "connection refused", report.Results[2].Error)
	assert.Equal(t, StatusPassed, report.Results[3].Status)
}

func TestRunner_FactoryErrorIsRecorded(t *testing.T) {
	var executed atomic.Int32
	exec := ExecutorFunc(func(context.Context, string, string, *environment.Environment) error {
		executed.Add(1)
		return nil
	})

	broken := testCase(refRoot, "A.def")
	broken.Environment = func() (*environment.Environment, error) {
		return nil, errors.New("dictionary missing")
	}
	unbound := testCase(refRoot, "B.def")
	unbound.Environment = nil

	report, err := NewRunner(exec).Run(context.Background(), []materialize.Case{
		broken,
		unbound,
		testCase(refRoot, "C.def"),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), executed.Load())
	assert.Equal(t, StatusError, report.Results[0].Status)
	assert.Equal(t, "dictionary missing", report.Results[0].Error)
	assert.Equal(t, StatusError, report.Results[1].Status)
	assert.Equal(t, StatusPassed, report.Results[2].Status)
	assert.Equal(t, 2, report.Errored)
}

func TestRunner_EachCaseBuildsItsOwnEnvironment(t *testing.T) {
	var built atomic.Int32
	factory := func() (*environment.Environment, error) {
		built.Add(1)
		return fixedFactory()
	}

	var mu sync.Mutex
	seen := make(map[*environment.Environment]bool)
	exec := ExecutorFunc(func(_ context.Context, _, _ string, env *environment.Environment) error {
		mu.Lock()
		defer mu.Unlock()
		seen[env] = true
		return nil
	})

	cases := make([]materialize.Case, 5)
	for i := range cases {
		cases[i] = testCase(refRoot, string(rune('A'+i))+".def")
		cases[i].Environment = factory
	}

	r := NewRunner(exec)
	r.Workers = 3
	_, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	assert.Equal(t, int32(5), built.Load())
	assert.Len(t, seen, 5)
}

func TestRunner_ParallelKeepsOrder(t *testing.T) {
	ids := []string{"A.def", "B.def", "C.def", "D.def", "E.def", "F.def", "G.def", "H.def"}
	cases := make([]materialize.Case, len(ids))
	for i, id := range ids {
		cases[i] = testCase(refRoot, id)
	}

	var running, peak atomic.Int32
	exec := ExecutorFunc(func(_ context.Context, _, id string, _ *environment.Environment) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		// Earlier cases take longer so completion order is reversed.
		time.Sleep(time.Duration('I'-id[0]) * time.Millisecond)
		return nil
	})

	r := NewRunner(exec)
	r.Workers = 3
	report, err := r.Run(context.Background(), cases)
	require.NoError(t, err)

	want := make([]string, len(ids))
	for i, id := range ids {
		want[i] = "reference/4.2/" + id
	}
	assert.Equal(t, want, keys(report))
	assert.LessOrEqual(t, peak.Load(), int32(3))
	for i, res := range report.Results {
		assert.Equal(t, int64(i+1), res.Seq)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Int32
	exec := ExecutorFunc(func(context.Context, string, string, *environment.Environment) error {
		executed.Add(1)
		return nil
	})

	report, err := NewRunner(exec).Run(ctx, []materialize.Case{
		testCase(refRoot, "A.def"),
		testCase(refRoot, "B.def"),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	assert.Equal(t, int32(0), executed.Load())
	assert.Equal(t, 2, report.Errored)
	assert.Contains(t, report.Results[0].Error, "not started")
}

func TestRunner_RequiresExecutor(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunner_Empty(t *testing.T) {
	report, err := NewRunner(passAll()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 0, report.Total())
	assert.NotNil(t, report.Results)
}

func TestRunner_Golden(t *testing.T) {
	exec := ExecutorFunc(func(_ context.Context, location, id string, _ *environment.Environment) error {
		switch id {
		case "2b_MsgSeqNumTooHigh.def":
			return &ScenarioFailure{Location: location, Identifier: id}
		case "6_SendTestRequest.def":
			return errors.New("interpreter crashed")
		}
		return nil
	})

	cases := []materialize.Case{
		testCase(refRoot, "1a_ValidLogonWithCorrectMsgSeqNum.def"),
		testCase(refRoot, "2a_MsgSeqNumCorrect.def"),
		testCase(customRoot, "2b_MsgSeqNumTooHigh.def"),
		testCase(customRoot, "6_SendTestRequest.def"),
	}

	report, err := NewRunner(exec).Run(context.Background(), cases)
	require.NoError(t, err)

	AssertGolden(t, "mixed_run", report)
}

func TestScenarioFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	err := error(&ScenarioFailure{Location: "/c", Identifier: "A.def", Err: cause})

	assert.Equal(t, "scenario /c/A.def failed: exit status 1", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsScenarioFailure(err))
	assert.False(t, IsScenarioFailure(cause))

	bare := &ScenarioFailure{Location: "/c", Identifier: "B.def"}
	assert.Equal(t, "scenario /c/B.def failed", bare.Error())
}

func TestRunner_OnResult(t *testing.T) {
	var mu sync.Mutex
	got := make(map[int64]Status)

	r := NewRunner(ExecutorFunc(func(_ context.Context, location, id string, _ *environment.Environment) error {
		if id == "B.def" {
			return &ScenarioFailure{Location: location, Identifier: id}
		}
		return nil
	}))
	r.Workers = 2
	r.OnResult = func(res CaseResult) {
		mu.Lock()
		defer mu.Unlock()
		got[res.Seq] = res.Status
	}

	_, err := r.Run(context.Background(), []materialize.Case{
		testCase(refRoot, "A.def"),
		testCase(refRoot, "B.def"),
		testCase(refRoot, "C.def"),
	})
	require.NoError(t, err)

	assert.Equal(t, map[int64]Status{1: StatusPassed, 2: StatusFailed, 3: StatusPassed}, got)
}
