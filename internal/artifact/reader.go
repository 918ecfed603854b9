package artifact

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

// Source is anything rooted at a built source directory.
type Source interface {
	SrcDir() string
}

// Dir is a Source for a plain source directory path.
type Dir string

// SrcDir returns d.
func (d Dir) SrcDir() string { return string(d) }

// Reader reads artifacts and reports reads to a metrics recorder.
type Reader struct {
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(rd *Reader) { rd.recorder = metrics.OrNoop(r) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rd *Reader) {
		if l != nil {
			rd.logger = l
		}
	}
}

// NewReader returns a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultReader = NewReader()

// ReadOutput reads a rendered page with a default Reader.
func ReadOutput(src Source, opts OutputOptions) (string, error) {
	return defaultReader.Output(src, opts)
}

// ReadDoctree reads a serialized tree with a default Reader.
func ReadDoctree(src Source, opts DoctreeOptions) (*doctree.Node, error) {
	return defaultReader.Doctree(src, opts)
}

// Path returns <srcdir>/_build/<folder>/<filename>.
func Path(src Source, folder, filename string) string {
	return filepath.Join(builder.OutputDir(src.SrcDir(), folder), filepath.FromSlash(filename))
}

// read loads an artifact file, mapping absence to a missing-artifact error.
func (r *Reader) read(kind metrics.ArtifactKind, path string) ([]byte, error) {
	// #nosec G304 -- artifact paths are derived from the scenario source directory
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if os.IsNotExist(err) {
		r.recorder.IncArtifactRead(kind, metrics.ReadMissing)
		r.logger.Debug("Artifact missing", logfields.Artifact(string(kind)), logfields.Path(path))
		return nil, errors.MissingArtifact(path).Build()
	}
	r.recorder.IncArtifactRead(kind, metrics.ReadError)
	return nil, errors.WrapError(err, errors.CategoryFileSystem, "read artifact").
		WithContext("path", path).Build()
}

func (r *Reader) compare(kind metrics.ArtifactKind, checker baseline.Checker, content, extension, encoding string) error {
	if checker == nil {
		r.recorder.IncArtifactRead(kind, metrics.ReadError)
		return errors.ConfigError("baseline comparison requested without a baseline checker").Build()
	}
	if err := checker.Check(content, extension, encoding); err != nil {
		r.recorder.IncArtifactRead(kind, metrics.ReadError)
		return err
	}
	return nil
}
