// Package cleanup removes generated build output so repeated scenario runs
// start from a clean state.
package cleanup

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

// BuildDirName is the generated-output directory inside a source tree.
const BuildDirName = "_build"

// RemoveBuildDirs deletes <root>/<entry>/_build for every direct
// subdirectory of root. Nothing outside those directories is touched.
// A missing root or a subdirectory without _build is skipped, so running it
// twice is a no-op the second time. The removed directories are returned;
// I/O failures are joined into the error after every entry was attempted.
func RemoveBuildDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read source root").
			WithContext("path", root).Build()
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir, err := RemoveScenarioBuild(filepath.Join(root, entry.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if dir != "" {
			removed = append(removed, dir)
		}
	}
	return removed, stderrors.Join(errs...)
}

// RemoveScenarioBuild deletes <srcdir>/_build and returns its path, or ""
// when there was nothing to delete. A _build that is a plain file is left
// alone.
func RemoveScenarioBuild(srcdir string) (string, error) {
	buildDir := filepath.Join(srcdir, BuildDirName)
	info, err := os.Lstat(buildDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WrapError(err, errors.CategoryFileSystem, "stat build directory").
			WithContext("path", buildDir).Build()
	}
	if !info.IsDir() {
		return "", nil
	}
	if err := os.RemoveAll(buildDir); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "remove build directory").
			WithContext("path", buildDir).Build()
	}
	slog.Debug("Removed build directory", logfields.Path(buildDir))
	return buildDir, nil
}
