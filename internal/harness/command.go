package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/roach88/fixaccept/internal/environment"
)

// CommandExecutor runs each scenario through an external interpreter.
type CommandExecutor struct {
	// Path is the interpreter binary.
	Path string

	// Args come before the scenario path on the command line.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Run implements Executor.
func (e *CommandExecutor) Run(ctx context.Context, location, identifier string, env *environment.Environment) error {
	if e.Path == "" {
		return fmt.Errorf("interpreter path is required")
	}
	if env == nil {
		return fmt.Errorf("environment is required")
	}

	args := make([]string, 0, len(e.Args)+1)
	args = append(args, e.Args...)
	args = append(args, filepath.Join(location, identifier))

	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Dir = e.Dir
	cmd.Env = append(os.Environ(), Environ(env)...)

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &ScenarioFailure{
			Location:   location,
			Identifier: identifier,
			Output:     string(out),
			Err:        err,
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run %s: %w", e.Path, ctx.Err())
	}
	return fmt.Errorf("run %s: %w", e.Path, err)
}

// Environ renders env as KEY=value pairs for an interpreter process.
func Environ(env *environment.Environment) []string {
	return []string{
		"FIXACCEPT_VERSION=" + env.Version,
		"FIXACCEPT_BEGIN_STRING=" + env.BeginString,
		"FIXACCEPT_SENDER_COMP_ID=" + env.Session.SenderCompID,
		"FIXACCEPT_TARGET_COMP_ID=" + env.Session.TargetCompID,
		"FIXACCEPT_HEARTBTINT=" + strconv.Itoa(env.Session.HeartBtInt),
	}
}
