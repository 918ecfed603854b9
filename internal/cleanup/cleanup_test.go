package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestRemoveBuildDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "basic", "index.md"), "# Basic\n")
	writeFile(t, filepath.Join(root, "basic", "_build", "html", "index.html"), "<html></html>")
	writeFile(t, filepath.Join(root, "basic", "_build", "doctrees", "index.doctree"), "x")
	writeFile(t, filepath.Join(root, "includes", "index.md"), "# Includes\n")
	writeFile(t, filepath.Join(root, "includes", "_build", "html", "index.html"), "<html></html>")
	writeFile(t, filepath.Join(root, "clean", "index.md"), "# Clean\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a scenario")
	// nested _build below a direct subdirectory is not generated output of that scenario
	writeFile(t, filepath.Join(root, "basic", "sub", "_build", "keep.txt"), "keep")

	removed, err := RemoveBuildDirs(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "basic", "_build"),
		filepath.Join(root, "includes", "_build"),
	}, removed)

	assert.NoDirExists(t, filepath.Join(root, "basic", "_build"))
	assert.NoDirExists(t, filepath.Join(root, "includes", "_build"))
	assert.FileExists(t, filepath.Join(root, "basic", "index.md"))
	assert.FileExists(t, filepath.Join(root, "includes", "index.md"))
	assert.FileExists(t, filepath.Join(root, "clean", "index.md"))
	assert.FileExists(t, filepath.Join(root, "notes.txt"))
	assert.FileExists(t, filepath.Join(root, "basic", "sub", "_build", "keep.txt"))
}

func TestRemoveBuildDirs_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "basic", "_build", "html", "index.html"), "x")

	first, err := RemoveBuildDirs(root)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := RemoveBuildDirs(root)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRemoveBuildDirs_MissingRoot(t *testing.T) {
	removed, err := RemoveBuildDirs(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestRemoveScenarioBuild_IgnoresPlainFile(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "_build"), "a file, not output")

	dir, err := RemoveScenarioBuild(src)
	require.NoError(t, err)
	assert.Empty(t, dir)
	assert.FileExists(t, filepath.Join(src, "_build"))
}
