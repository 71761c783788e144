package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixaccept/internal/materialize"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool
}

// CheckResult is the output of the check command.
type CheckResult struct {
	Config string              `json:"config"`
	Clean  bool                `json:"clean"`
	Report *materialize.Report `json:"report"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Cross-check the policy against the scenario roots",
		Long: `Compare the policy lists with the scenario files on disk.

Reports:
  dangling    included identifiers with no file in any root of the corpus
  shadowed    included identifiers that are also globally excluded
  unreviewed  files on disk that no list mentions
  pending     files on disk still under review
  not-nfc     configured identifiers not in Unicode NFC

Dangling entries are skipped silently when cases are listed or run;
this command is where they surface.

Exit codes:
  0 - Report printed (or clean, with --strict)
  1 - Dangling or shadowed entries found (--strict only)
  2 - Command error

Examples:
  fixaccept check --corpus ./definitions
  fixaccept check --strict --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runCheck(opts, f))
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when dangling or shadowed entries exist")

	return cmd
}

func runCheck(opts *CheckOptions, f *OutputFormatter) error {
	p, err := loadPipeline(opts.RootOptions)
	if err != nil {
		return err
	}

	report, err := materialize.CrossCheck(p.Sources, p.Policy, p.Discoverer)
	if err != nil {
		return classify(err)
	}

	result := CheckResult{Config: p.ConfigName, Clean: report.Clean(), Report: report}
	text := func(w io.Writer) { writeCheckReport(w, result) }

	if opts.Strict && !result.Clean {
		return f.EmitFailure(ErrCodeCheckFailed,
			fmt.Sprintf("%d dangling, %d shadowed", len(report.Dangling), len(report.Shadowed)),
			ExitFailure, result, text)
	}
	return f.Emit(result, text)
}

func writeCheckReport(w io.Writer, result CheckResult) {
	r := result.Report
	fmt.Fprintf(w, "Policy %s: %d discovered, %d included\n", result.Config, r.Discovered, r.Included)

	section := func(title string, findings []materialize.Finding) {
		if len(findings) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s (%d):\n", title, len(findings))
		for _, fd := range findings {
			line := fd.ID
			if fd.Root.Corpus != "" {
				line = fd.Root.String() + "/" + fd.ID
			}
			if fd.Note != "" {
				line += "  # " + fd.Note
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	section("Dangling", r.Dangling)
	section("Shadowed", r.Shadowed)
	section("Not NFC", r.NotNFC)
	section("Pending", r.Pending)
	section("Unreviewed", r.Unreviewed)

	fmt.Fprintln(w)
	if result.Clean {
		fmt.Fprintln(w, "✓ No dangling or shadowed entries")
	} else {
		fmt.Fprintln(w, "✗ Policy has dangling or shadowed entries")
	}
}
