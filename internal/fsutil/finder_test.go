package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.cell", "a.cell", "notes.txt", filepath.Join("sub", "c.cell")} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))
	}

	files, err := FindFilesByExtension(root, ".cell")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.cell"),
		filepath.Join(root, "b.cell"),
		filepath.Join(root, "sub", "c.cell"),
	}, files)

	single, err := FindFilesByExtension(filepath.Join(root, "notes.txt"), ".cell")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "notes.txt")}, single)
}

func TestFindFilesByExtension_Errors(t *testing.T) {
	_, err := FindFilesByExtension(t.TempDir(), "")
	assert.Error(t, err)

	_, err = FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".cell")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
