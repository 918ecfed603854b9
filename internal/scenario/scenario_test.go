package scenario

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

type outcomeCounter struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcome
	removed  int
}

func (c *outcomeCounter) IncBuildOutcome(_ string, o metrics.BuildOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *outcomeCounter) AddBuildDirsRemoved(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed += n
}

// fakeDriver writes a _build tree and reports warnings when asked to.
func fakeDriver(warn string) builder.Driver {
	return builder.DriverFunc(func(_ context.Context, req builder.Request) error {
		req = req.WithDefaults()
		if err := os.MkdirAll(req.OutDir, 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(req.OutDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
			return err
		}
		rep := builder.NewReporter(req)
		rep.Statusf("building [%s] tags=%v fresh=%v", req.Builder, req.Tags, req.FreshEnv)
		if warn != "" {
			rep.Warn("index.md", 1, warn)
		}
		rep.Succeeded()
		return nil
	})
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o750))
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{BuilderName: " HTML ", Tags: []string{" a ", "", "b"}}
	cfg.Normalize()

	assert.Equal(t, "html", cfg.BuilderName)
	assert.Equal(t, DefaultTestRoot, cfg.TestRoot)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	cases := []Config{
		{BuilderName: "html/x", TestRoot: "root"},
		{BuilderName: "html", TestRoot: "../escape"},
		{BuilderName: "html", TestRoot: "root", Tags: []string{"two words"}},
	}
	for i, cfg := range cases {
		err := cfg.Validate()
		require.Error(t, err, "case %d", i)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
}

func TestNew_InPlace(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "basic")
	mkdirs(t, src)

	sc, err := New(Config{SrcDir: src}, fakeDriver(""))
	require.NoError(t, err)
	assert.Equal(t, src, sc.SrcDir())
	assert.Equal(t, "html", sc.Builder())
	assert.Equal(t, filepath.Join(src, "_build", "html"), sc.OutDir())
	assert.Len(t, sc.ID(), 36)
}

func TestNew_MissingSrcDir(t *testing.T) {
	_, err := New(Config{SrcDir: filepath.Join(t.TempDir(), "nope")}, fakeDriver(""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestNew_RequiresDriver(t *testing.T) {
	_, err := New(Config{SrcDir: t.TempDir()}, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestBuild_CapturesAndTeesStreams(t *testing.T) {
	src := filepath.Join(t.TempDir(), "basic")
	mkdirs(t, src)
	var status, warnings bytes.Buffer
	rec := &outcomeCounter{}

	sc, err := New(Config{SrcDir: src, Tags: []string{"x"}, FreshEnv: true}, fakeDriver("careful"),
		WithStatus(&status), WithWarning(&warnings), WithRecorder(rec))
	require.NoError(t, err)
	require.NoError(t, sc.Build(context.Background()))

	assert.Equal(t, "building [html] tags=[x] fresh=true\nbuild succeeded, 1 warning.\n", sc.Status())
	assert.Equal(t, "index.md:1: WARNING: careful\n", sc.Warnings())
	assert.Equal(t, sc.Status(), status.String())
	assert.Equal(t, sc.Warnings(), warnings.String())
	assert.True(t, sc.Succeeded())
	assert.Equal(t, []metrics.BuildOutcome{metrics.OutcomeWarnings}, rec.outcomes)
}

func TestBuild_WrapsDriverErrors(t *testing.T) {
	rec := &outcomeCounter{}
	failing := builder.DriverFunc(func(context.Context, builder.Request) error {
		return stderrors.New("exit status 2")
	})
	sc, err := New(Config{SrcDir: t.TempDir()}, failing, WithRecorder(rec))
	require.NoError(t, err)

	err = sc.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	assert.False(t, sc.Succeeded())
	assert.Equal(t, []metrics.BuildOutcome{metrics.OutcomeFailed}, rec.outcomes)

	classified := builder.DriverFunc(func(context.Context, builder.Request) error {
		return errors.ConfigError("unknown builder").Build()
	})
	sc, err = New(Config{SrcDir: t.TempDir()}, classified)
	require.NoError(t, err)
	assert.True(t, errors.HasCategory(sc.Build(context.Background()), errors.CategoryConfig))
}

func TestClose_InPlaceRemovesOnlyOwnBuild(t *testing.T) {
	root := t.TempDir()
	srcA := filepath.Join(root, "a")
	srcB := filepath.Join(root, "b")
	mkdirs(t, srcA, srcB)
	for _, dir := range []string{srcA, srcB} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.md"), []byte("# X\n"), 0o600))
	}
	rec := &outcomeCounter{}

	scA, err := New(Config{SrcDir: srcA}, fakeDriver(""), WithRecorder(rec))
	require.NoError(t, err)
	scB, err := New(Config{SrcDir: srcB}, fakeDriver(""), WithRecorder(rec))
	require.NoError(t, err)
	require.NoError(t, scA.Build(context.Background()))
	require.NoError(t, scB.Build(context.Background()))

	require.NoError(t, scA.Close())
	assert.NoDirExists(t, filepath.Join(srcA, "_build"))
	assert.FileExists(t, filepath.Join(srcA, "index.md"))
	assert.FileExists(t, filepath.Join(srcB, "_build", "html", "index.html"))
	assert.Equal(t, 1, rec.removed)

	require.NoError(t, scA.Close())
	assert.Equal(t, 1, rec.removed)

	require.NoError(t, scB.Close())
	assert.NoDirExists(t, filepath.Join(srcB, "_build"))
	assert.Equal(t, 2, rec.removed)
}

func TestNew_CopiesFixture(t *testing.T) {
	fixtures := t.TempDir()
	work := t.TempDir()
	fixture := filepath.Join(fixtures, "test-root")
	mkdirs(t, filepath.Join(fixture, "sub"), filepath.Join(fixture, "_build", "stale"))
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "conf.yaml"), []byte("project: R\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(fixture, "sub", "page.md"), []byte("# P\n"), 0o600))

	sc, err := New(Config{}, fakeDriver(""), WithFixturesRoot(fixtures), WithWorkRoot(work))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, fmt.Sprintf("root-%s", sc.ID()[:8])), sc.SrcDir())
	assert.FileExists(t, filepath.Join(sc.SrcDir(), "conf.yaml"))
	assert.FileExists(t, filepath.Join(sc.SrcDir(), "sub", "page.md"))
	assert.NoDirExists(t, filepath.Join(sc.SrcDir(), "_build"))

	require.NoError(t, sc.Build(context.Background()))
	assert.NoDirExists(t, filepath.Join(fixture, "_build", "html"))

	require.NoError(t, sc.Close())
	assert.NoDirExists(t, sc.SrcDir())
	assert.FileExists(t, filepath.Join(fixture, "conf.yaml"))
}

func TestNew_FixtureErrors(t *testing.T) {
	_, err := New(Config{TestRoot: "basic"}, fakeDriver(""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = New(Config{TestRoot: "absent"}, fakeDriver(""), WithFixturesRoot(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestBuild_HonorsContext(t *testing.T) {
	slow := builder.DriverFunc(func(ctx context.Context, _ builder.Request) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	sc, err := New(Config{SrcDir: t.TempDir()}, slow)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = sc.Build(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
