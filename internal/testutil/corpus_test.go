package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScenarios(t *testing.T) {
	base := t.TempDir()
	dir := WriteScenarios(t, base, "quickfix/fix42", "A.def", "B.def")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFIX42Corpus_Layout(t *testing.T) {
	base := FIX42Corpus(t, []string{"X.def"}, []string{"Y.def"})

	_, err := os.Stat(filepath.Join(base, "quickfix", "fix42", "X.def"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "custom", "fix42", "Y.def"))
	require.NoError(t, err)
}

func TestFIX42Corpus_EmptyLists(t *testing.T) {
	base := FIX42Corpus(t, nil, nil)

	info, err := os.Stat(filepath.Join(base, "custom", "fix42"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
