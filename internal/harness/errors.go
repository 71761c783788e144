package harness

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ScenarioFailure is returned by an Executor when the system under test
// does not behave as the scenario definition expects.
type ScenarioFailure struct {
	Location   string
	Identifier string

	// Output is whatever the interpreter printed, if anything.
	Output string

	// Err is the underlying cause, such as the interpreter's exit error.
	Err error
}

// Error implements the error interface.
func (e *ScenarioFailure) Error() string {
	path := filepath.Join(e.Location, e.Identifier)
	if e.Err == nil {
		return fmt.Sprintf("scenario %s failed", path)
	}
	return fmt.Sprintf("scenario %s failed: %v", path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ScenarioFailure) Unwrap() error {
	return e.Err
}

// IsScenarioFailure reports whether err is or wraps a *ScenarioFailure.
func IsScenarioFailure(err error) bool {
	var sf *ScenarioFailure
	return errors.As(err, &sf)
}
