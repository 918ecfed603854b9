package mdbuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/foundation/normalization"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

// Format is an output format produced by the driver.
type Format string

const (
	FormatHTML      Format = "html"
	FormatPseudoXML Format = "pseudoxml"
)

var formats = normalization.NewEnum("builder", map[string]Format{
	"html":      FormatHTML,
	"pseudoxml": FormatPseudoXML,
})

// Formats lists the builder names the driver accepts.
func Formats() []string { return formats.Names() }

func (f Format) extension() string { return "." + string(f) }

// DoctreeExtension is the file extension of serialized trees.
const DoctreeExtension = ".doctree"

// Driver builds Markdown source trees. The zero value is not usable; call New.
type Driver struct {
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger for build summaries.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns a driver.
func New(opts ...Option) *Driver {
	d := &Driver{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ builder.Driver = (*Driver)(nil)

// Build implements builder.Driver.
func (d *Driver) Build(ctx context.Context, req builder.Request) error {
	req = req.WithDefaults()
	start := time.Now()

	format, err := formats.Lookup(req.Builder)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "unknown builder").
			Fatal().WithContext("builder", req.Builder).Build()
	}

	rep := builder.NewReporter(req)
	rep.Statusf("Running docharness mdbuild")

	conf, unknown, err := LoadConf(req.SrcDir, req.ConfOverrides)
	if err != nil {
		return err
	}
	confPath := filepath.Join(req.SrcDir, ConfFile)
	for _, key := range unknown {
		rep.Warn(confPath, 0, fmt.Sprintf("unknown config value %q, ignoring", key))
	}

	settings, err := ParseSettings(req.DocutilsConf)
	if err != nil {
		return err
	}
	md, err := settings.Markdown()
	if err != nil {
		return err
	}

	docs, err := discover(req.SrcDir, conf)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "scan source directory").
			WithContext("srcdir", req.SrcDir).Build()
	}
	present := make(map[string]bool, len(docs))
	for _, doc := range docs {
		present[doc.docname] = true
	}
	if !present[conf.MasterDoc] {
		rep.Warn("", 0, fmt.Sprintf("master document %q not found", conf.MasterDoc))
	}

	config := configFingerprint(conf, settings, req.Tags)
	env := newEnvironment(config)
	if !req.FreshEnv {
		env = loadEnvironment(req.DoctreeDir, config)
	}

	conv := newConverter(md, req.SrcDir, req.Tags, rep)
	var outdated []*page
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return errors.WrapError(err, errors.CategoryBuild, "build interrupted").Build()
		}
		rep.Statusf("reading sources... [%3d%%] %s", (i+1)*100/len(docs), doc.docname)
		p, err := conv.document(doc.docname, doc.path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read source").
				WithContext("path", doc.path).Build()
		}
		fp := p.fingerprint()
		if env.Docs[doc.docname] != fp ||
			!exists(d.outputPath(req.OutDir, doc.docname, format)) ||
			!exists(doctreePath(req.DoctreeDir, doc.docname)) {
			outdated = append(outdated, p)
		}
		env.Docs[doc.docname] = fp
	}
	for _, gone := range env.removed(present) {
		d.logger.Debug("Document removed", logfields.Document(gone))
	}

	rep.Statusf("building [%s]: targets for %d source files that are out of date", format, len(outdated))
	for i, p := range outdated {
		if err := ctx.Err(); err != nil {
			return errors.WrapError(err, errors.CategoryBuild, "build interrupted").Build()
		}
		rep.Statusf("writing output... [%3d%%] %s", (i+1)*100/len(outdated), p.docname)
		if err := d.write(req, conf, format, p); err != nil {
			return err
		}
	}
	if format == FormatHTML {
		if err := writeStatic(req.OutDir); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write static files").
				WithContext("path", req.OutDir).Build()
		}
	}
	if err := env.save(req.DoctreeDir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "save environment").
			WithContext("path", req.DoctreeDir).Build()
	}

	d.logger.Debug("Build finished",
		logfields.Builder(string(format)),
		logfields.SrcDir(req.SrcDir),
		logfields.Count(len(outdated)),
		logfields.Duration(time.Since(start)))
	rep.Succeeded()
	return nil
}

func (d *Driver) write(req builder.Request, conf *Conf, format Format, p *page) error {
	treePath := doctreePath(req.DoctreeDir, p.docname)
	if err := doctree.WriteFile(treePath, p.tree); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write doctree").
			WithContext("path", treePath).Build()
	}

	var (
		content []byte
		err     error
	)
	switch format {
	case FormatHTML:
		content, err = renderHTML(conf, p)
	case FormatPseudoXML:
		content = []byte(doctree.Pformat(p.tree))
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryBuild, "render output").
			WithContext("document", p.docname).Build()
	}

	out := d.outputPath(req.OutDir, p.docname, format)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", out).Build()
	}
	if err := os.WriteFile(out, content, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output").
			WithContext("path", out).Build()
	}
	return nil
}

func (d *Driver) outputPath(outdir, docname string, format Format) string {
	return filepath.Join(outdir, filepath.FromSlash(docname)+format.extension())
}

func doctreePath(dir, docname string) string {
	return filepath.Join(dir, filepath.FromSlash(docname)+DoctreeExtension)
}

func writeStatic(outdir string) error {
	dir := filepath.Join(outdir, staticDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for name, content := range staticFiles {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
