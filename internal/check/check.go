// Package check runs a check file: it builds the configured scenario, reads
// every listed artifact and collects what did not match.
package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/docharness/internal/artifact"
	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/config"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
	"git.home.luguber.info/inful/docharness/internal/scenario"
)

// Failure is one check that did not pass.
type Failure struct {
	Check string
	Err   error
}

func (f Failure) String() string {
	s := f.Check + ": " + f.Err.Error()
	if diff := baseline.DiffOf(f.Err); diff != "" {
		s += "\n" + diff
	}
	return s
}

// Result summarizes one run.
type Result struct {
	Name     string
	Scenario string
	Status   string
	Warnings string
	Checks   int
	Failures []Failure
}

// Failed reports whether any check failed.
func (res *Result) Failed() bool { return len(res.Failures) > 0 }

// Err returns a validation error listing every failure, or nil.
func (res *Result) Err() error {
	if !res.Failed() {
		return nil
	}
	lines := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		lines = append(lines, f.String())
	}
	return errors.ValidationError(fmt.Sprintf("%d of %d checks failed", len(res.Failures), res.Checks)).
		WithContext("check", res.Name).
		WithContext("failures", strings.Join(lines, "\n")).
		Build()
}

// Runner executes check files against one driver.
type Runner struct {
	driver   builder.Driver
	mode     baseline.Mode
	workRoot string
	status   io.Writer
	warning  io.Writer
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMode selects verify or record for regression checks.
func WithMode(m baseline.Mode) Option { return func(r *Runner) { r.mode = m } }

// WithWorkRoot sets where fixture copies are made.
func WithWorkRoot(dir string) Option { return func(r *Runner) { r.workRoot = dir } }

// WithStatus tees the build status stream to w.
func WithStatus(w io.Writer) Option { return func(r *Runner) { r.status = w } }

// WithWarning tees the build warning stream to w.
func WithWarning(w io.Writer) Option { return func(r *Runner) { r.warning = w } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = metrics.OrNoop(rec) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner returns a Runner building with driver.
func NewRunner(driver builder.Driver, opts ...Option) *Runner {
	r := &Runner{
		driver:   driver,
		mode:     baseline.ModeVerify,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds cfg's scenario and evaluates its checks. The returned error is
// reserved for failures that prevent checking at all; failed checks are
// reported on the Result.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (res *Result, err error) {
	opts := []scenario.Option{
		scenario.WithFixturesRoot(cfg.Fixtures),
		scenario.WithRecorder(r.recorder),
		scenario.WithLogger(r.logger),
	}
	if r.workRoot != "" {
		opts = append(opts, scenario.WithWorkRoot(r.workRoot))
	}
	if r.status != nil {
		opts = append(opts, scenario.WithStatus(r.status))
	}
	if r.warning != nil {
		opts = append(opts, scenario.WithWarning(r.warning))
	}

	sc, err := scenario.New(cfg.Scenario, r.driver, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := sc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	res = &Result{Name: cfg.Name, Scenario: sc.ID()}
	buildErr := sc.Build(ctx)
	res.Status, res.Warnings = sc.Status(), sc.Warnings()
	if buildErr != nil {
		return res, buildErr
	}

	res.Checks++
	if !sc.Succeeded() {
		res.fail("build", errors.BuildError("build did not report success").Build())
	} else if w := strings.TrimSpace(res.Warnings); w != "" && !cfg.AllowWarnings {
		res.fail("build", errors.ValidationError("build emitted warnings").
			WithContext("warnings", w).Build())
	}

	store := baseline.NewStore(cfg.Baselines, r.mode, baseline.WithRecorder(r.recorder), baseline.WithLogger(r.logger))
	reader := artifact.NewReader(artifact.WithRecorder(r.recorder), artifact.WithLogger(r.logger))
	for _, o := range cfg.Outputs {
		r.output(res, reader, store, cfg.Name, sc, o)
	}
	for _, d := range cfg.Doctrees {
		r.doctree(res, reader, store, cfg.Name, sc, d)
	}

	r.logger.Info("Checks finished",
		logfields.Scenario(res.Scenario),
		logfields.Count(res.Checks),
		slog.Int("failed", len(res.Failures)))
	return res, nil
}

func (r *Runner) output(res *Result, reader *artifact.Reader, store *baseline.Store, name string, src artifact.Source, o config.OutputCheck) {
	label := path.Join("output", o.Builder, o.File)
	res.Checks++
	opts := artifact.OutputOptions{
		Builder:       o.Builder,
		Filename:      o.File,
		Encoding:      o.Encoding,
		ExtractBody:   o.ExtractBody,
		RemoveScripts: o.RemoveScripts,
		Regress:       o.Regress,
	}
	if o.Regress {
		opts.Baseline = store.For(baselineName(name, o.Builder, o.File))
	}
	content, err := reader.Output(src, opts)
	if err != nil {
		res.fail(label, err)
		return
	}
	res.contains(label, content, o.Contains)
}

func (r *Runner) doctree(res *Result, reader *artifact.Reader, store *baseline.Store, name string, src artifact.Source, d config.DoctreeCheck) {
	label := path.Join("doctree", d.Folder, d.File)
	res.Checks++
	opts := artifact.DoctreeOptions{
		Filename: d.File,
		Folder:   d.Folder,
		Encoding: d.Encoding,
		Regress:  d.Regress,
	}
	if d.Regress {
		opts.Baseline = store.For(baselineName(name, d.Folder, d.File))
	}
	tree, err := reader.Doctree(src, opts)
	if err != nil {
		res.fail(label, err)
		return
	}
	if len(d.Contains) > 0 {
		res.contains(label, doctree.Pformat(tree), d.Contains)
	}
}

func (res *Result) fail(check string, err error) {
	res.Failures = append(res.Failures, Failure{Check: check, Err: err})
}

func (res *Result) contains(check, content string, wanted []string) {
	for _, w := range wanted {
		if !strings.Contains(content, w) {
			res.fail(check, errors.ValidationError(fmt.Sprintf("content missing %q", w)).Build())
		}
	}
}

// baselineName keys a check's baseline. The store turns the separators into
// underscores, so outputs land in "<name>_<builder>_<file>.html".
func baselineName(name, folder, file string) string {
	return name + "/" + folder + "/" + file
}
