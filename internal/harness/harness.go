// Package harness is the testing front-end: it creates build scenarios bound
// to a test, registers their cleanup and fails the test on build or artifact
// errors.
//
//	var h = &harness.Harness{
//		Driver:    mdbuild.New(),
//		Baselines: baseline.NewStore("testdata/baselines", harness.BaselineMode()),
//	}
//
//	func TestBasic(t *testing.T) {
//		sc := h.Scenario(t, scenario.Config{SrcDir: "testdata/sourcedirs/basic", FreshEnv: true})
//		h.Build(t, sc)
//		h.AssertBuildSucceeded(t, sc)
//		h.Output(t, sc, artifact.OutputOptions{Filename: "content.html", Regress: true})
//	}
package harness

import (
	"context"
	"flag"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/docharness/internal/artifact"
	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/cleanup"
	"git.home.luguber.info/inful/docharness/internal/doctree"
	"git.home.luguber.info/inful/docharness/internal/metrics"
	"git.home.luguber.info/inful/docharness/internal/scenario"
)

// UpdateGoldenFlag is the go test flag that selects baseline.ModeRecord.
const UpdateGoldenFlag = "update-golden"

func init() {
	registerUpdateGolden(flag.CommandLine)
}

// registerUpdateGolden defines the flag unless a package initialized
// earlier already did.
func registerUpdateGolden(fs *flag.FlagSet) {
	if fs.Lookup(UpdateGoldenFlag) == nil {
		fs.Bool(UpdateGoldenFlag, false, "record regression baselines instead of comparing against them")
	}
}

// BaselineMode returns ModeRecord when tests run with -update-golden.
//
// This package registers the flag during initialization, before any test
// package that imports it. Such a test package must not declare
// -update-golden itself (the flag package panics on redefinition); it
// should call BaselineMode instead.
func BaselineMode() baseline.Mode {
	return baselineMode(flag.CommandLine)
}

func baselineMode(fs *flag.FlagSet) baseline.Mode {
	f := fs.Lookup(UpdateGoldenFlag)
	if f == nil {
		return baseline.ModeVerify
	}
	update, err := strconv.ParseBool(f.Value.String())
	return baseline.ModeFor(err == nil && update)
}

// DefaultBuildTimeout bounds Build when Harness.Timeout is zero.
const DefaultBuildTimeout = 2 * time.Minute

// Harness carries what every scenario of a test package shares.
type Harness struct {
	// FixturesRoot holds test-<testroot> trees for scenarios without SrcDir.
	FixturesRoot string
	// WorkRoot receives fixture copies; empty means os.TempDir.
	WorkRoot  string
	Driver    builder.Driver
	Baselines *baseline.Store
	Recorder  metrics.Recorder
	Logger    *slog.Logger
	Timeout   time.Duration
	// CleanupRoot is swept by Sweep; scenarios only remove their own output.
	CleanupRoot string
}

// Sweep removes _build from every direct subdirectory of CleanupRoot. Call it
// once after all scenarios are closed, typically from TestMain.
func (h *Harness) Sweep() error {
	if h.CleanupRoot == "" {
		return nil
	}
	removed, err := cleanup.RemoveBuildDirs(h.CleanupRoot)
	metrics.OrNoop(h.Recorder).AddBuildDirsRemoved(len(removed))
	return err
}

// Scenario creates a scenario and registers its Close with t.Cleanup, so
// build output is removed whether the test passes, fails or panics.
func (h *Harness) Scenario(t testing.TB, cfg scenario.Config, opts ...scenario.Option) *scenario.Scenario {
	t.Helper()
	base := []scenario.Option{
		scenario.WithFixturesRoot(h.FixturesRoot),
		scenario.WithWorkRoot(h.WorkRoot),
		scenario.WithRecorder(h.Recorder),
		scenario.WithLogger(h.Logger),
	}
	sc, err := scenario.New(cfg, h.Driver, append(base, opts...)...)
	if err != nil {
		t.Fatalf("create scenario: %v", err)
		return nil
	}
	t.Cleanup(func() {
		if err := sc.Close(); err != nil {
			t.Errorf("clean up scenario %s: %v", sc.ID(), err)
		}
	})
	return sc
}

// Build runs the scenario's build and fails the test if the driver fails.
// Warnings do not fail the build; inspect them with sc.Warnings.
func (h *Harness) Build(t testing.TB, sc *scenario.Scenario) {
	t.Helper()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := sc.Build(ctx); err != nil {
		t.Fatalf("build %s: %v\nstatus:\n%s\nwarnings:\n%s", sc.SrcDir(), err, sc.Status(), sc.Warnings())
	}
}

// AssertBuildSucceeded checks the success marker and an empty warning stream.
func (h *Harness) AssertBuildSucceeded(t testing.TB, sc *scenario.Scenario) {
	t.Helper()
	if !sc.Succeeded() {
		t.Errorf("build did not report %q\nstatus:\n%s", builder.SuccessMarker, sc.Status())
	}
	if warnings := strings.TrimSpace(sc.Warnings()); warnings != "" {
		t.Errorf("build emitted warnings:\n%s", warnings)
	}
}

// Output reads a rendered page. With Regress and no explicit Baseline the
// harness store is used, keyed by the test name.
func (h *Harness) Output(t testing.TB, src artifact.Source, opts artifact.OutputOptions) string {
	t.Helper()
	if opts.Regress && opts.Baseline == nil {
		opts.Baseline = h.checker(t)
	}
	content, err := h.reader().Output(src, opts)
	if err != nil {
		t.Fatalf("read output: %v%s", err, diffSuffix(err))
	}
	return content
}

// Doctree reads a serialized tree with sources reduced to base names. With
// Regress and no explicit Baseline the harness store is used.
func (h *Harness) Doctree(t testing.TB, src artifact.Source, opts artifact.DoctreeOptions) *doctree.Node {
	t.Helper()
	if opts.Regress && opts.Baseline == nil {
		opts.Baseline = h.checker(t)
	}
	tree, err := h.reader().Doctree(src, opts)
	if err != nil {
		t.Fatalf("read doctree: %v%s", err, diffSuffix(err))
	}
	return tree
}

func (h *Harness) checker(t testing.TB) baseline.Checker {
	t.Helper()
	if h.Baselines == nil {
		t.Fatalf("baseline comparison requested but the harness has no baseline store")
		return nil
	}
	return h.Baselines.For(t.Name())
}

func (h *Harness) reader() *artifact.Reader {
	return artifact.NewReader(artifact.WithRecorder(h.Recorder), artifact.WithLogger(h.Logger))
}

func diffSuffix(err error) string {
	if diff := baseline.DiffOf(err); diff != "" {
		return "\n" + diff
	}
	return ""
}
