package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainWalkerVisitsAllFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644))

	var seen []string
	w := NewPlainWalker()
	err := w.Walk(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			seen = append(seen, filepath.Base(path))
		}
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.txt", "b.txt"}, seen)
}

func TestPlainWalkerSkipDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skipme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skipme", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("k"), 0o644))

	var seen []string
	w := NewPlainWalker()
	err := w.Walk(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "skipme" {
			return SkipDir
		}
		if !d.IsDir() {
			seen = append(seen, filepath.Base(path))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"keep.txt"}, seen)
}
