package mdbuild

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docharness/internal/builder"
)

type source struct {
	docname string
	path    string
}

// discover lists the documents of srcdir in docname order. The build
// directory, hidden entries and excluded patterns are skipped.
func discover(srcdir string, conf *Conf) ([]source, error) {
	var docs []source
	err := filepath.WalkDir(srcdir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcdir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == builder.BuildDir || strings.HasPrefix(d.Name(), ".") || excluded(rel, conf.ExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.HasSuffix(rel, conf.SourceSuffix) || excluded(rel, conf.ExcludePatterns) {
			return nil
		}
		docs = append(docs, source{docname: strings.TrimSuffix(rel, conf.SourceSuffix), path: p})
		return nil
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].docname < docs[j].docname })
	return docs, err
}

// excluded matches rel, a slash separated path relative to the source
// directory, against glob patterns.
func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
