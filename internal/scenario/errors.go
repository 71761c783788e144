package scenario

import (
	"errors"
	"fmt"
)

// ErrNotDirectory is wrapped by FileSystemError when a root path exists
// but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// FileSystemError reports a root that is missing or unreadable.
// It is fatal to materialization; no scenario is silently skipped
// because of an I/O failure.
type FileSystemError struct {
	Root Root
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("scenario root %s (%s): %s: %v", e.Root, e.Root.Dir, e.Op, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// IsFileSystemError returns true if err is or wraps a FileSystemError.
func IsFileSystemError(err error) bool {
	var fsErr *FileSystemError
	return errors.As(err, &fsErr)
}
