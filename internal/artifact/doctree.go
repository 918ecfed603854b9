package artifact

import (
	"bytes"

	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
	"git.home.luguber.info/inful/docharness/internal/textenc"
)

const (
	// DefaultDoctreeFile is read when DoctreeOptions names no file.
	DefaultDoctreeFile = "index.doctree"
	// XMLExtension keys doctree baselines.
	XMLExtension = ".xml"
)

// DoctreeOptions select a serialized tree.
type DoctreeOptions struct {
	Filename string
	Folder   string
	// Encoding is the encoding of the stored pseudo-XML baseline.
	Encoding string
	Regress  bool
	Baseline baseline.Checker
}

func (o DoctreeOptions) withDefaults() DoctreeOptions {
	if o.Filename == "" {
		o.Filename = DefaultDoctreeFile
	}
	if o.Folder == "" {
		o.Folder = builder.DoctreeFolder
	}
	if o.Encoding == "" {
		o.Encoding = textenc.Default
	}
	return o
}

// DoctreePath returns <srcdir>/_build/<folder>/<filename>.
func DoctreePath(src Source, folder, filename string) string {
	return Path(src, folder, filename)
}

// Doctree decodes a serialized tree and reduces every source attribute to its
// base name before returning or comparing it.
func (r *Reader) Doctree(src Source, opts DoctreeOptions) (*doctree.Node, error) {
	opts = opts.withDefaults()
	path := DoctreePath(src, opts.Folder, opts.Filename)

	data, err := r.read(metrics.ArtifactDoctree, path)
	if err != nil {
		return nil, err
	}
	tree, err := doctree.Decode(bytes.NewReader(data))
	if err != nil {
		r.recorder.IncArtifactRead(metrics.ArtifactDoctree, metrics.ReadError)
		return nil, errors.WrapError(err, errors.CategoryValidation, "decode doctree").
			WithContext("path", path).Build()
	}

	n := doctree.NormalizeSources(tree)
	r.logger.Debug("Normalized doctree sources", logfields.Path(path), logfields.Count(n))

	if opts.Regress {
		if err := r.compare(metrics.ArtifactDoctree, opts.Baseline, doctree.Pformat(tree), XMLExtension, opts.Encoding); err != nil {
			return nil, err
		}
	}
	r.recorder.IncArtifactRead(metrics.ArtifactDoctree, metrics.ReadOK)
	return tree, nil
}
