package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fixaccept/internal/materialize"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Where string
}

// CaseView is the JSON form of a materialized case.
type CaseView struct {
	Corpus      string `json:"corpus"`
	Version     string `json:"version"`
	Identifier  string `json:"identifier"`
	Environment string `json:"environment"`
	Path        string `json:"path"`
}

// ListResult is the output of the list command.
type ListResult struct {
	Config      string     `json:"config"`
	Selector    string     `json:"selector,omitempty"`
	Fingerprint string     `json:"fingerprint"`
	Cases       []CaseView `json:"cases"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cases the policy selects",
		Long: `Print the ordered list of acceptance cases: every scenario on disk
that the policy includes for its root, bound to its environment.

Roots are listed in policy order; scenarios within a root in byte-wise
file name order. The fingerprint identifies the enumeration.

Exit codes:
  0 - Listed
  2 - Command error (bad policy, unreadable root, unknown environment)

Examples:
  fixaccept list --corpus ./definitions
  fixaccept list --where 'corpus == "custom"'
  fixaccept list --config policy.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			return f.Fail(runList(opts, f))
		},
	}

	cmd.Flags().StringVarP(&opts.Where, "where", "w", "", "selector expression to narrow the list")

	return cmd
}

func runList(opts *ListOptions, f *OutputFormatter) error {
	p, err := loadPipeline(opts.RootOptions)
	if err != nil {
		return err
	}
	cases, err := p.cases(opts.Where)
	if err != nil {
		return err
	}

	result := ListResult{
		Config:      p.ConfigName,
		Selector:    opts.Where,
		Fingerprint: materialize.Fingerprint(cases),
		Cases:       caseViews(cases),
	}

	return f.Emit(result, func(w io.Writer) {
		writeCaseList(w, result)
	})
}

func caseViews(cases []materialize.Case) []CaseView {
	views := make([]CaseView, len(cases))
	for i, c := range cases {
		views[i] = CaseView{
			Corpus:      string(c.Root.Corpus),
			Version:     c.Root.Version,
			Identifier:  c.Identifier,
			Environment: c.EnvironmentTag,
			Path:        c.Path(),
		}
	}
	return views
}

// writeCaseList prints one case per line, grouped under a root header.
func writeCaseList(w io.Writer, result ListResult) {
	var current string
	for _, c := range result.Cases {
		root := c.Corpus + "/" + c.Version
		if root != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s (environment %s)\n", root, c.Environment)
			current = root
		}
		fmt.Fprintf(w, "  %s\n", c.Identifier)
	}
	if len(result.Cases) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d case(s) from %s\n", len(result.Cases), result.Config)
	fmt.Fprintf(w, "fingerprint %s\n", result.Fingerprint)
}
