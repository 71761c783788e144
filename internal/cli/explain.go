package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixaccept/internal/policy"
)

// PolicyOptions holds flags for the policy command.
type PolicyOptions struct {
	*RootOptions
	Root string // "corpus/version"; empty means every configured root
}

// PolicyResult is the output of the policy command.
type PolicyResult struct {
	Config    string            `json:"config"`
	Decisions []policy.Decision `json:"decisions"`
}

// NewPolicyCommand creates the policy command.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PolicyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "policy <identifier>...",
		Short: "Explain why scenarios are or are not selected",
		Long: `Show the decision the policy makes for each identifier in each
configured root, and the rule that produced it.

Verdicts:
  excluded    in the global exclusion list; never runs
  included    in the root's inclusion list
  pending     under review for the root; does not run
  unreviewed  in no list; does not run

Identifiers are matched exactly. Nothing on disk is read.

Examples:
  fixaccept policy 2d_GarbledMessage.def
  fixaccept policy 6_SendTestRequest.def --root custom/4.2`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runPolicy(opts, args, f))
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "only explain for this root (corpus/version)")

	return cmd
}

func runPolicy(opts *PolicyOptions, ids []string, f *OutputFormatter) error {
	p, err := loadPipeline(opts.RootOptions)
	if err != nil {
		return err
	}

	result := PolicyResult{Config: p.ConfigName, Decisions: []policy.Decision{}}
	matched := false
	for _, src := range p.Sources {
		key := src.Root.Key()
		if opts.Root != "" && key.String() != opts.Root {
			continue
		}
		matched = true
		for _, id := range ids {
			result.Decisions = append(result.Decisions, p.Policy.Explain(id, key))
		}
	}
	if !matched {
		return codedExitError(ExitCommandError, ErrCodeConfig,
			fmt.Sprintf("root %q is not configured", opts.Root), nil)
	}

	return f.Emit(result, func(w io.Writer) {
		for _, d := range result.Decisions {
			fmt.Fprintf(w, "%-11s %s/%s", d.Verdict, d.Root, d.ID)
			if d.Exclusion != nil {
				fmt.Fprintf(w, " [%s]", d.Exclusion.Reason)
			}
			if d.Note != "" {
				fmt.Fprintf(w, "  # %s", d.Note)
			}
			fmt.Fprintln(w)
		}
	})
}
