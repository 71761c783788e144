package scenario

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtension is the file suffix of FIX acceptance definitions.
const DefaultExtension = ".def"

// Discoverer enumerates the scenario identifiers present in a root.
//
// Implementations must be deterministic for unchanged storage and must
// return an error, never an empty result, when the root is inaccessible.
type Discoverer interface {
	Discover(root Root) ([]string, error)
}

// DirDiscoverer discovers scenarios as regular files directly under
// Root.Dir. Subdirectories are not traversed.
type DirDiscoverer struct {
	// Extension filters file names by suffix. Empty means DefaultExtension.
	Extension string
}

// NewDirDiscoverer creates a discoverer for .def files.
func NewDirDiscoverer() *DirDiscoverer {
	return &DirDiscoverer{Extension: DefaultExtension}
}

// Discover lists the scenario files under root.Dir sorted by byte value.
//
// Symlinks count when their target is a regular file. An existing but
// empty directory yields an empty, non-nil slice. A missing, unreadable
// or non-directory root yields a *FileSystemError.
func (d *DirDiscoverer) Discover(root Root) ([]string, error) {
	ext := d.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	info, err := os.Stat(root.Dir)
	if err != nil {
		return nil, &FileSystemError{Root: root, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &FileSystemError{Root: root, Op: "stat", Err: ErrNotDirectory}
	}

	// os.ReadDir closes the directory handle before returning.
	entries, err := os.ReadDir(root.Dir)
	if err != nil {
		return nil, &FileSystemError{Root: root, Op: "readdir", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		regular, err := isRegular(root, entry)
		if err != nil {
			return nil, err
		}
		if regular {
			ids = append(ids, name)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

// isRegular reports whether entry is a regular file, following a
// symlink to its target. A link whose target is gone is not present.
func isRegular(root Root, entry fs.DirEntry) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular(), nil
	}
	info, err := os.Stat(filepath.Join(root.Dir, entry.Name()))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &FileSystemError{Root: root, Op: "stat " + entry.Name(), Err: err}
	}
	return info.Mode().IsRegular(), nil
}

// StaticDiscoverer serves a fixed candidate set per root key.
// It lets the policy and materializer be exercised without a filesystem.
type StaticDiscoverer map[RootKey][]string

// Discover returns a sorted copy of the identifiers registered for the
// root's key. Unknown keys behave like a missing directory.
func (s StaticDiscoverer) Discover(root Root) ([]string, error) {
	ids, ok := s[root.Key()]
	if !ok {
		return nil, &FileSystemError{Root: root, Op: "stat", Err: os.ErrNotExist}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out, nil
}
