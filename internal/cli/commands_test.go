package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fixaccept/internal/testutil"
)

// standardCorpus lays out a small FIX 4.2 corpus against the built-in
// policy: one included reference scenario plus an excluded, a pending and
// an unlisted one, and two included custom scenarios.
func standardCorpus(t *testing.T) string {
	t.Helper()
	return testutil.FIX42Corpus(t,
		[]string{
			"1a_ValidLogonWithCorrectMsgSeqNum.def",
			"2d_GarbledMessage.def",
			"8_OnlyAdminMessages.def",
			"99_Unlisted.def",
		},
		[]string{
			"2b_MsgSeqNumTooHigh.def",
			"1e_NotLogonMessage.def",
		},
	)
}

// writePolicy writes a policy file into dir and returns its path.
func writePolicy(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

// decode unmarshals a JSON envelope, with Data decoded into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func TestList_Golden(t *testing.T) {
	base := standardCorpus(t)

	out, _, err := execute(t, "list", "--corpus", base)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "list_text", []byte(out))
}

func TestList_JSON(t *testing.T) {
	base := standardCorpus(t)

	out, _, err := execute(t, "list", "--corpus", base, "--format", "json")
	require.NoError(t, err)

	var result ListResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "builtin:fix42", result.Config)
	assert.Len(t, result.Fingerprint, 64)

	ids := make([]string, len(result.Cases))
	for i, c := range result.Cases {
		ids[i] = c.Corpus + "/" + c.Identifier
	}
	assert.Equal(t, []string{
		"reference/1a_ValidLogonWithCorrectMsgSeqNum.def",
		"custom/1e_NotLogonMessage.def",
		"custom/2b_MsgSeqNumTooHigh.def",
	}, ids)
	assert.Equal(t, filepath.Join(base, "custom", "fix42", "1e_NotLogonMessage.def"), result.Cases[1].Path)
}

func TestList_Where(t *testing.T) {
	base := standardCorpus(t)

	out, _, err := execute(t, "list", "--corpus", base, "--format", "json",
		"--where", `corpus == "custom" && id startsWith "2"`)
	require.NoError(t, err)

	var result ListResult
	decode(t, out, &result)
	require.Len(t, result.Cases, 1)
	assert.Equal(t, "2b_MsgSeqNumTooHigh.def", result.Cases[0].Identifier)
	assert.Equal(t, `corpus == "custom" && id startsWith "2"`, result.Selector)
}

func TestList_InvalidSelector(t *testing.T) {
	base := standardCorpus(t)

	out, _, err := execute(t, "list", "--corpus", base, "--format", "json", "--where", "corpus ==")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSelector, resp.Error.Code)
}

func TestList_MissingRoot(t *testing.T) {
	base := t.TempDir()
	testutil.WriteScenarios(t, base, filepath.Join("quickfix", "fix42"), "1a_ValidLogonWithCorrectMsgSeqNum.def")

	out, _, err := execute(t, "list", "--corpus", base, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDiscovery, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "custom")
}

func TestList_UnknownEnvironment(t *testing.T) {
	base := standardCorpus(t)
	path := writePolicy(t, t.TempDir(), `
roots:
  - corpus: custom
    version: "4.2"
    dir: custom/fix42
    environment: "9.9"
    include:
      - id: 1e_NotLogonMessage.def
`)

	out, _, err := execute(t, "list", "--corpus", base, "--config", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnknownEnvironment, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "9.9")
}

func TestList_BadPolicyFile(t *testing.T) {
	path := writePolicy(t, t.TempDir(), "roots:\n  - corpus: custom\n    inclde: []\n")

	_, _, err := execute(t, "list", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load policy")
}

const danglingPolicy = `
exclusions:
  - id: 2d_GarbledMessage.def
    reason: ambiguous
roots:
  - corpus: reference
    version: "4.2"
    dir: quickfix/fix42
    include:
      - id: 1a_ValidLogonWithCorrectMsgSeqNum.def
      - id: 2d_GarbledMessage.def
      - id: 5_NotOnDisk.def
  - corpus: custom
    version: "4.2"
    dir: custom/fix42
    include:
      - id: 1e_NotLogonMessage.def
      - id: 2b_MsgSeqNumTooHigh.def
`

func TestCheck_Report(t *testing.T) {
	base := standardCorpus(t)
	path := writePolicy(t, t.TempDir(), danglingPolicy)

	out, _, err := execute(t, "check", "--corpus", base, "--config", path)
	require.NoError(t, err, "check without --strict only reports")

	assert.Contains(t, out, "Dangling (1):\n  reference/4.2/5_NotOnDisk.def")
	assert.Contains(t, out, "Shadowed (1):")
	assert.Contains(t, out, "2d_GarbledMessage.def")
	assert.Contains(t, out, "Unreviewed")
	assert.Contains(t, out, "99_Unlisted.def")
	assert.Contains(t, out, "✗ Policy has dangling or shadowed entries")
}

func TestCheck_Strict(t *testing.T) {
	base := standardCorpus(t)
	path := writePolicy(t, t.TempDir(), danglingPolicy)

	out, _, err := execute(t, "check", "--corpus", base, "--config", path, "--strict", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result CheckResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCheckFailed, resp.Error.Code)
	assert.False(t, result.Clean)
	require.NotNil(t, result.Report)
	require.Len(t, result.Report.Dangling, 1)
	assert.Equal(t, "5_NotOnDisk.def", result.Report.Dangling[0].ID)
}

func TestCheck_StrictOutcomes(t *testing.T) {
	base := standardCorpus(t)

	out, _, err := execute(t, "check", "--corpus", base, "--strict")
	// The built-in policy names far more scenarios than the fixture
	// holds, so dangling entries are expected.
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Dangling")

	path := writePolicy(t, t.TempDir(), `
roots:
  - corpus: custom
    version: "4.2"
    dir: custom/fix42
    include:
      - id: 1e_NotLogonMessage.def
      - id: 2b_MsgSeqNumTooHigh.def
`)
	out, _, err = execute(t, "check", "--corpus", base, "--config", path, "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ No dangling or shadowed entries")
}

func TestPolicy_Explain(t *testing.T) {
	out, _, err := execute(t, "policy", "2d_GarbledMessage.def", "1e_NotLogonMessage.def", "--format", "json")
	require.NoError(t, err)

	var result PolicyResult
	decode(t, out, &result)

	// Two roots in the built-in policy, two identifiers each.
	require.Len(t, result.Decisions, 4)

	byKey := map[string]string{}
	for _, d := range result.Decisions {
		byKey[d.Root.String()+"/"+d.ID] = string(d.Verdict)
	}
	assert.Equal(t, "excluded", byKey["reference/4.2/2d_GarbledMessage.def"])
	assert.Equal(t, "excluded", byKey["custom/4.2/2d_GarbledMessage.def"])
	assert.Equal(t, "unreviewed", byKey["reference/4.2/1e_NotLogonMessage.def"])
	assert.Equal(t, "included", byKey["custom/4.2/1e_NotLogonMessage.def"])
}

func TestPolicy_RootFilter(t *testing.T) {
	out, _, err := execute(t, "policy", "8_OnlyAdminMessages.def", "--root", "reference/4.2")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "reference/4.2/8_OnlyAdminMessages.def")
	assert.NotContains(t, out, "custom/4.2")

	_, _, err = execute(t, "policy", "8_OnlyAdminMessages.def", "--root", "custom/9.9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// failScript passes every scenario except those whose path contains "2b_".
const failScript = `case "$0" in *2b_*) echo "expected logout"; exit 1;; esac; exit 0`

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
}

func TestRun_PassAndFail(t *testing.T) {
	requireShell(t)
	base := standardCorpus(t)

	out, _, err := execute(t, "run", "--corpus", base,
		"--interpreter", "/bin/sh", "--arg", "-c", "--arg", failScript,
		"--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result RunResult
	resp := decode(t, out, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeRunFailed, resp.Error.Code)
	require.NotNil(t, result.Report)
	assert.Equal(t, 2, result.Report.Passed)
	assert.Equal(t, 1, result.Report.Failed)
	assert.Empty(t, result.RunID, "no --db means nothing recorded")

	failed := result.Report.Results[2]
	assert.Equal(t, "2b_MsgSeqNumTooHigh.def", failed.Identifier)
	assert.Contains(t, failed.Output, "expected logout")
}

func TestRun_AllPass(t *testing.T) {
	requireShell(t)
	base := standardCorpus(t)

	out, _, err := execute(t, "run", "--corpus", base,
		"--interpreter", "/bin/sh", "--arg", "-c", "--arg", `test "$FIXACCEPT_BEGIN_STRING" = "FIX.4.2"`,
		"--workers", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "3 passed, 0 failed, 0 errored")
}

func TestRun_RequiresInterpreter(t *testing.T) {
	base := standardCorpus(t)

	_, _, err := execute(t, "run", "--corpus", base)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--interpreter")
}

func TestRun_InvalidWorkers(t *testing.T) {
	_, _, err := execute(t, "run", "--interpreter", "/bin/sh", "--workers", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_RecordHistoryDiff(t *testing.T) {
	requireShell(t)
	base := standardCorpus(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	// First run: everything passes.
	out, _, err := execute(t, "run", "--corpus", base, "--db", db,
		"--interpreter", "/bin/sh", "--arg", "-c", "--arg", "exit 0", "--format", "json")
	require.NoError(t, err)
	var first RunResult
	decode(t, out, &first)
	require.NotEmpty(t, first.RunID)

	// Second run: one case fails.
	out, _, err = execute(t, "run", "--corpus", base, "--db", db,
		"--interpreter", "/bin/sh", "--arg", "-c", "--arg", failScript, "--format", "json")
	require.Error(t, err)
	var second RunResult
	decode(t, out, &second)
	require.NotEmpty(t, second.RunID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	t.Run("history lists runs", func(t *testing.T) {
		out, _, err := execute(t, "history", "--db", db, "--format", "json")
		require.NoError(t, err)

		var result HistoryResult
		decode(t, out, &result)
		require.Len(t, result.Runs, 2)
		assert.Equal(t, first.RunID, result.Runs[0].ID)
		assert.Equal(t, 3, result.Runs[0].Passed)
		assert.Equal(t, second.RunID, result.Runs[1].ID)
		assert.Equal(t, 1, result.Runs[1].Failed)
	})

	t.Run("history shows a run", func(t *testing.T) {
		out, _, err := execute(t, "history", "--db", db, "latest")
		require.NoError(t, err)
		assert.Contains(t, out, second.RunID)
		assert.Contains(t, out, "0003 fail  custom/4.2/2b_MsgSeqNumTooHigh.def")
	})

	t.Run("history unknown run", func(t *testing.T) {
		_, _, err := execute(t, "history", "--db", db, "nope")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("diff", func(t *testing.T) {
		out, _, err := execute(t, "diff", "--db", db, first.RunID, "latest", "--format", "json")
		require.NoError(t, err)

		var d struct {
			SameEnumeration bool `json:"same_enumeration"`
			Changed         []struct {
				Key  string `json:"key"`
				From string `json:"from"`
				To   string `json:"to"`
			} `json:"changed"`
		}
		decode(t, out, &d)
		assert.True(t, d.SameEnumeration)
		require.Len(t, d.Changed, 1)
		assert.Equal(t, "custom/4.2/2b_MsgSeqNumTooHigh.def", d.Changed[0].Key)
		assert.Equal(t, "pass", d.Changed[0].From)
		assert.Equal(t, "fail", d.Changed[0].To)
	})

	t.Run("diff text", func(t *testing.T) {
		out, _, err := execute(t, "diff", "--db", db, first.RunID, second.RunID)
		require.NoError(t, err)
		assert.Contains(t, out, "same enumeration")
		assert.Contains(t, out, "~ custom/4.2/2b_MsgSeqNumTooHigh.def pass -> fail")
	})
}

func TestHistoryAndDiff_MissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "typo.db")

	for _, args := range [][]string{
		{"history", "--db", db, "--format", "json"},
		{"diff", "--db", db, "latest", "latest", "--format", "json"},
	} {
		t.Run(args[0], func(t *testing.T) {
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ErrCodeStore, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, "database not found")

			_, statErr := os.Stat(db)
			assert.True(t, os.IsNotExist(statErr), "reading history must not create the database")
		})
	}
}

// TestFailureOutput_SingleJSONDocument checks that commands exiting 1
// write exactly one envelope carrying the specific error code.
func TestFailureOutput_SingleJSONDocument(t *testing.T) {
	requireShell(t)
	base := standardCorpus(t)
	path := writePolicy(t, t.TempDir(), danglingPolicy)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"check strict", []string{"check", "--corpus", base, "--config", path, "--strict"}, ErrCodeCheckFailed},
		{"run with failure", []string{"run", "--corpus", base,
			"--interpreter", "/bin/sh", "--arg", "-c", "--arg", failScript}, ErrCodeRunFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, append(tt.args, "--format", "json")...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			dec := json.NewDecoder(strings.NewReader(out))
			var resp CLIResponse
			require.NoError(t, dec.Decode(&resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotNil(t, resp.Data)
			assert.False(t, dec.More(), "stdout holds more than one JSON document:\n%s", out)
		})
	}
}
