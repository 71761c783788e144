// Package selector narrows a materialized case list with a boolean
// expression written in expr-lang syntax, for example:
//
//	corpus == "custom" && id startsWith "2"
//	version == "4.2" && !(id matches "^14")
//
// Expressions see one case at a time through these variables:
//
//	corpus    "reference" or "custom"
//	version   protocol version of the root, e.g. "4.2"
//	id        scenario identifier (file name)
//	location  directory holding the scenario
//	env       environment tag the case is bound to
//
// A selector only removes cases. It never consults the inclusion policy
// and cannot bring back a case the policy filtered out.
package selector

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/fixaccept/internal/materialize"
)

// candidate is the expression environment for a single case.
type candidate struct {
	Corpus   string `expr:"corpus"`
	Version  string `expr:"version"`
	ID       string `expr:"id"`
	Location string `expr:"location"`
	Env      string `expr:"env"`
}

func candidateOf(c materialize.Case) candidate {
	return candidate{
		Corpus:   string(c.Root.Corpus),
		Version:  c.Root.Version,
		ID:       c.Identifier,
		Location: c.Location,
		Env:      c.EnvironmentTag,
	}
}

// Selector is a compiled case filter. The zero value matches every case.
type Selector struct {
	expression string
	program    *vm.Program
}

// Compile parses and type-checks expression. The expression must
// evaluate to a bool; referring to an unknown variable is a compile
// error. An empty or blank expression yields a selector that matches
// everything.
func Compile(expression string) (*Selector, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Selector{}, nil
	}

	program, err := expr.Compile(expression, expr.Env(candidate{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", expression, err)
	}
	return &Selector{expression: expression, program: program}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests
// and fixed expressions.
func MustCompile(expression string) *Selector {
	s, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the source expression.
func (s *Selector) String() string {
	if s == nil {
		return ""
	}
	return s.expression
}

// Match reports whether c satisfies the selector.
func (s *Selector) Match(c materialize.Case) (bool, error) {
	if s == nil || s.program == nil {
		return true, nil
	}

	out, err := expr.Run(s.program, candidateOf(c))
	if err != nil {
		return false, fmt.Errorf("evaluate selector %q on %s: %w", s.expression, c, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("evaluate selector %q on %s: result is %T, not bool", s.expression, c, out)
	}
	return ok, nil
}

// Select returns the cases that match, in their original order. The
// input slice is not modified. Evaluation stops at the first error.
func (s *Selector) Select(cases []materialize.Case) ([]materialize.Case, error) {
	out := make([]materialize.Case, 0, len(cases))
	for _, c := range cases {
		ok, err := s.Match(c)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}
