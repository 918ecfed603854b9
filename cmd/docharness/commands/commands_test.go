package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

// cliEnv runs commands in-process with captured output.
type cliEnv struct {
	t      *testing.T
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := &cliEnv{t: t, dir: dir, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.write("docs/conf.yaml", "project: CLI\n")
	env.write("docs/index.md", "# Welcome\n\nHello from the *CLI*.\n")
	return env
}

func (e *cliEnv) path(rel string) string { return filepath.Join(e.dir, filepath.FromSlash(rel)) }

func (e *cliEnv) write(rel, content string) {
	e.t.Helper()
	p := e.path(rel)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0o600))
}

func (e *cliEnv) run(args ...string) error {
	e.t.Helper()
	e.stdout.Reset()
	e.stderr.Reset()

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("docharness"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(e.t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	g := NewGlobal(&cli)
	g.Logger = slog.New(slog.DiscardHandler)
	g.Stdout, g.Stderr = e.stdout, e.stderr
	if err := kctx.Run(g, &cli); err != nil {
		return err
	}
	return g.Flush()
}

func TestBuildOutputAndDoctree(t *testing.T) {
	env := newCLIEnv(t)
	docs := env.path("docs")

	require.NoError(t, env.run("build", docs, "-E"))
	assert.Contains(t, env.stdout.String(), "build succeeded.")
	assert.Empty(t, env.stderr.String())
	assert.FileExists(t, filepath.Join(docs, "_build", "html", "index.html"))

	require.NoError(t, env.run("output", docs, "--extract-body", "--remove-scripts"))
	assert.Contains(t, env.stdout.String(), "<em>CLI</em>")
	assert.NotContains(t, env.stdout.String(), "<script")

	require.NoError(t, env.run("doctree", docs))
	assert.True(t, strings.HasPrefix(env.stdout.String(), `<document source="index.md">`), env.stdout.String())
}

func TestOutputRemoveScriptsKeepsRawText(t *testing.T) {
	env := newCLIEnv(t)
	docs := env.path("docs")
	require.NoError(t, env.run("build", docs))
	raw, err := os.ReadFile(filepath.Join(docs, "_build", "html", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "<script")

	require.NoError(t, env.run("output", docs, "--remove-scripts"))
	assert.Equal(t, string(raw), env.stdout.String())

	require.NoError(t, env.run("output", docs, "--remove-scripts", "--extract-body"))
	assert.NotContains(t, env.stdout.String(), "<script")
}

func TestBuildDefinesAndTags(t *testing.T) {
	env := newCLIEnv(t)
	env.write("docs/index.md", "# Welcome\n\n```{only} extra\nTagged text.\n```\n")
	docs := env.path("docs")

	require.NoError(t, env.run("build", docs, "-b", "pseudoxml", "-D", "project=Renamed", "-t", "extra"))
	out, err := os.ReadFile(filepath.Join(docs, "_build", "pseudoxml", "index.pseudoxml"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Tagged text.")
}

func TestBuildWarningIsError(t *testing.T) {
	env := newCLIEnv(t)
	docs := env.path("docs")

	require.NoError(t, env.run("build", docs, "-D", "master_doc=start"))
	assert.Contains(t, env.stderr.String(), `master document "start" not found`)

	err := env.run("build", docs, "-D", "master_doc=start", "-W")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestBuildUnknownBuilder(t *testing.T) {
	env := newCLIEnv(t)
	err := env.run("build", env.path("docs"), "-b", "latex")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestOutputRegressRecordThenVerify(t *testing.T) {
	env := newCLIEnv(t)
	docs := env.path("docs")
	baselines := env.path("baselines")
	require.NoError(t, env.run("build", docs))

	require.NoError(t, env.run("output", docs, "--regress", "--record", "--baseline-dir", baselines, "--name", "welcome"))
	assert.FileExists(t, filepath.Join(baselines, "welcome.html"))
	require.NoError(t, env.run("output", docs, "--regress", "--baseline-dir", baselines, "--name", "welcome"))

	env.write("docs/index.md", "# Welcome\n\nSomething else.\n")
	require.NoError(t, env.run("build", docs))
	err := env.run("output", docs, "--regress", "--baseline-dir", baselines, "--name", "welcome")
	require.Error(t, err)
	assert.True(t, errors.IsBaselineMismatch(err))
}

func TestOutputMissingArtifact(t *testing.T) {
	env := newCLIEnv(t)
	err := env.run("output", env.path("docs"), "missing.html")
	require.Error(t, err)
	assert.True(t, errors.IsMissingArtifact(err))
	assert.Empty(t, env.stdout.String())
}

func TestClean(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, env.run("build", env.path("docs")))

	require.NoError(t, env.run("clean", env.dir))
	assert.Contains(t, env.stdout.String(), filepath.Join(env.dir, "docs", "_build"))
	assert.NoDirExists(t, env.path("docs/_build"))

	require.NoError(t, env.run("clean", env.dir))
	assert.Empty(t, env.stdout.String())
}

func TestCheck(t *testing.T) {
	env := newCLIEnv(t)
	env.write("pass.yaml", "scenario:\n  srcdir: docs\noutputs:\n  - contains: [\"Hello\"]\n")
	env.write("fail.yaml", "scenario:\n  srcdir: docs\noutputs:\n  - contains: [\"Goodbye\"]\n")

	require.NoError(t, env.run("check", env.path("pass.yaml")))
	assert.Contains(t, env.stdout.String(), "PASS pass (2 checks)")

	err := env.run("check", env.path("pass.yaml"), env.path("fail.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Contains(t, env.stdout.String(), "FAIL fail (1 of 2 checks)")
	assert.Contains(t, env.stdout.String(), "content missing \"Goodbye\"")
	assert.NoDirExists(t, env.path("docs/_build"))
}

func TestMetricsTextfile(t *testing.T) {
	env := newCLIEnv(t)
	metricsFile := env.path("metrics.prom")

	require.NoError(t, env.run("--metrics-textfile", metricsFile, "build", env.path("docs")))
	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docharness_build_outcomes_total{builder="html",outcome="success"} 1`)
}

func TestDriverSelection(t *testing.T) {
	cli := &CLI{}
	assert.NotNil(t, cli.Driver(slog.New(slog.DiscardHandler)))

	g := NewGlobal(cli)
	assert.IsType(t, metrics.NoopRecorder{}, g.Recorder)
	assert.NoError(t, g.Flush())
}
