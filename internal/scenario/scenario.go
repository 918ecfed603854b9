// Package scenario holds one configured documentation build: its resolved
// source directory, the driver that builds it and the captured status and
// warning streams.
package scenario

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/cleanup"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

// Scenario is a configured build. It is immutable apart from its report
// streams; Close removes what the build left behind.
type Scenario struct {
	id     string
	cfg    Config
	srcdir string
	copied bool

	driver   builder.Driver
	recorder metrics.Recorder
	logger   *slog.Logger

	status   syncBuffer
	warnings syncBuffer
	statusW  io.Writer
	warningW io.Writer

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	fixturesRoot string
	workRoot     string
	status       io.Writer
	warning      io.Writer
	recorder     metrics.Recorder
	logger       *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithFixturesRoot sets the directory holding test-<testroot> fixture trees.
func WithFixturesRoot(dir string) Option {
	return func(o *options) { o.fixturesRoot = dir }
}

// WithWorkRoot sets where fixture trees are copied. Defaults to a
// docharness directory below os.TempDir.
func WithWorkRoot(dir string) Option {
	return func(o *options) { o.workRoot = dir }
}

// WithStatus tees the status stream to w.
func WithStatus(w io.Writer) Option {
	return func(o *options) { o.status = w }
}

// WithWarning tees the warning stream to w.
func WithWarning(w io.Writer) Option {
	return func(o *options) { o.warning = w }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New resolves the scenario's source directory. A configured SrcDir is built
// in place; otherwise the fixture tree for TestRoot is copied into a fresh
// work directory so fixtures are never modified.
func New(cfg Config, driver builder.Driver, opts ...Option) (*Scenario, error) {
	if driver == nil {
		return nil, errors.ConfigError("scenario requires a build driver").Build()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scenario{
		id:       uuid.NewString(),
		cfg:      cfg,
		driver:   driver,
		recorder: metrics.OrNoop(o.recorder),
		logger:   o.logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.statusW = tee(&s.status, o.status)
	s.warningW = tee(&s.warnings, o.warning)

	if cfg.SrcDir != "" {
		if err := s.useInPlace(cfg.SrcDir); err != nil {
			return nil, err
		}
	} else if err := s.copyFixture(o); err != nil {
		return nil, err
	}

	s.logger.Debug("Scenario ready",
		logfields.Scenario(s.id),
		logfields.Builder(cfg.BuilderName),
		logfields.SrcDir(s.srcdir))
	return s, nil
}

func (s *Scenario) useInPlace(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve source directory").
			WithContext("srcdir", dir).Build()
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return errors.NewError(errors.CategoryNotFound, "source directory does not exist").
			Fatal().WithContext("srcdir", abs).Build()
	}
	s.srcdir = abs
	return nil
}

func (s *Scenario) copyFixture(o options) error {
	if o.fixturesRoot == "" {
		return errors.ConfigError("testroot scenarios require a fixtures root").
			WithContext("testroot", s.cfg.TestRoot).Build()
	}
	fixture := s.cfg.FixtureDir(o.fixturesRoot)
	if info, err := os.Stat(fixture); err != nil || !info.IsDir() {
		return errors.NewError(errors.CategoryNotFound, "fixture tree does not exist").
			Fatal().WithContext("fixture", fixture).Build()
	}

	work := o.workRoot
	if work == "" {
		work = filepath.Join(os.TempDir(), "docharness")
	}
	dst := filepath.Join(work, s.cfg.TestRoot+"-"+s.id[:8])
	abs, err := filepath.Abs(dst)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve work directory").
			WithContext("path", dst).Build()
	}
	if err := copyTree(fixture, abs); err != nil {
		_ = os.RemoveAll(abs)
		return errors.WrapError(err, errors.CategoryFileSystem, "copy fixture tree").
			WithContext("fixture", fixture).WithContext("path", abs).Build()
	}
	s.srcdir = abs
	s.copied = true
	return nil
}

// ID identifies the scenario in logs and work directory names.
func (s *Scenario) ID() string { return s.id }

// Config returns the normalized configuration.
func (s *Scenario) Config() Config { return s.cfg }

// SrcDir returns the absolute source directory being built.
func (s *Scenario) SrcDir() string { return s.srcdir }

// Builder returns the builder name.
func (s *Scenario) Builder() string { return s.cfg.BuilderName }

// OutDir returns <srcdir>/_build/<builder>.
func (s *Scenario) OutDir() string { return builder.OutputDir(s.srcdir, s.cfg.BuilderName) }

// Status returns everything the build wrote to its status stream.
func (s *Scenario) Status() string { return s.status.String() }

// Warnings returns everything the build wrote to its warning stream.
func (s *Scenario) Warnings() string { return s.warnings.String() }

// Succeeded reports whether the status stream carries the success marker.
func (s *Scenario) Succeeded() bool {
	return strings.Contains(s.Status(), builder.SuccessMarker)
}

// Build runs the driver once for this scenario.
func (s *Scenario) Build(ctx context.Context) error {
	req := builder.Request{
		SrcDir:        s.srcdir,
		Builder:       s.cfg.BuilderName,
		FreshEnv:      s.cfg.FreshEnv,
		ConfOverrides: s.cfg.ConfOverrides,
		Tags:          s.cfg.Tags,
		DocutilsConf:  s.cfg.DocutilsConf,
		Status:        s.statusW,
		Warning:       s.warningW,
	}

	s.logger.Info("Building scenario",
		logfields.Scenario(s.id),
		logfields.Builder(s.cfg.BuilderName),
		logfields.SrcDir(s.srcdir))

	start := time.Now()
	err := s.driver.Build(ctx, req)
	elapsed := time.Since(start)
	s.recorder.ObserveBuildDuration(s.cfg.BuilderName, elapsed)

	switch {
	case err != nil:
		s.recorder.IncBuildOutcome(s.cfg.BuilderName, metrics.OutcomeFailed)
		s.logger.Error("Build failed",
			logfields.Scenario(s.id), logfields.Duration(elapsed), logfields.Error(err))
		if _, ok := errors.AsClassified(err); ok {
			return err
		}
		return errors.WrapError(err, errors.CategoryBuild, "build failed").
			WithContext("srcdir", s.srcdir).Build()
	case strings.TrimSpace(s.Warnings()) != "":
		s.recorder.IncBuildOutcome(s.cfg.BuilderName, metrics.OutcomeWarnings)
		s.logger.Warn("Build finished with warnings",
			logfields.Scenario(s.id), logfields.Duration(elapsed))
	default:
		s.recorder.IncBuildOutcome(s.cfg.BuilderName, metrics.OutcomeSuccess)
		s.logger.Info("Build finished",
			logfields.Scenario(s.id), logfields.Duration(elapsed))
	}
	return nil
}

// Close removes the scenario's own _build directory and nothing else;
// sibling source trees keep their output. A copied fixture is deleted
// entirely. Close is idempotent.
func (s *Scenario) Close() error {
	s.closeOnce.Do(func() {
		dir, err := cleanup.RemoveScenarioBuild(s.srcdir)
		if dir != "" {
			s.recorder.AddBuildDirsRemoved(1)
			s.logger.Debug("Removed build directory",
				logfields.Scenario(s.id), logfields.Path(dir))
		}
		s.closeErr = err
		if !s.copied {
			return
		}
		if err := os.RemoveAll(s.srcdir); err != nil {
			s.closeErr = errors.WrapError(err, errors.CategoryFileSystem, "remove scenario copy").
				WithContext("path", s.srcdir).Build()
		}
	})
	return s.closeErr
}

func tee(buf io.Writer, extra io.Writer) io.Writer {
	if extra == nil {
		return buf
	}
	return io.MultiWriter(buf, extra)
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
