// Package testutil builds scenario corpora on disk for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// placeholderScript is written into fixture definitions. The selection
// pipeline never reads it; executors under test may.
const placeholderScript = "iCONNECT\nE8=FIX.4.2\x019=0\x0135=A\x01\neDISCONNECT\n"

// WriteScenarios creates base/rel and writes one definition file per name.
// It returns the absolute directory path.
func WriteScenarios(t testing.TB, base, rel string, names ...string) string {
	t.Helper()
	dir := filepath.Join(base, rel)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create corpus dir: %v", err)
	}
	for _, name := range names {
		WriteScenario(t, dir, name, placeholderScript)
	}
	return dir
}

// WriteScenario writes a single definition with the given contents.
func WriteScenario(t testing.TB, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write scenario %s: %v", name, err)
	}
	return path
}

// FIX42Corpus lays out a reference and a custom fix42 directory under a
// fresh temp dir, mirroring the acceptance suite layout. It returns the
// base directory.
func FIX42Corpus(t testing.TB, reference, custom []string) string {
	t.Helper()
	base := t.TempDir()
	WriteScenarios(t, base, filepath.Join("quickfix", "fix42"), reference...)
	WriteScenarios(t, base, filepath.Join("custom", "fix42"), custom...)
	return base
}
