package check

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/config"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/mdbuild"
)

var discard = slog.New(slog.DiscardHandler)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// project lays out a docs tree and a check file next to it.
func project(t *testing.T, check string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "conf.yaml"), "project: Site\n")
	writeFile(t, filepath.Join(dir, "docs", "index.md"), "# Welcome\n\nHello *world*.\n")
	writeFile(t, filepath.Join(dir, "site.yaml"), check)
	return dir
}

func load(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, _, err := config.Load(filepath.Join(dir, "site.yaml"))
	require.NoError(t, err)
	return cfg
}

func newRunner(mode baseline.Mode) *Runner {
	return NewRunner(mdbuild.New(mdbuild.WithLogger(discard)), WithMode(mode), WithLogger(discard))
}

const regressCheck = `
scenario:
  srcdir: docs
  freshenv: true
outputs:
  - file: index.html
    regress: true
    contains: ["Hello", "<em>world</em>"]
doctrees:
  - regress: true
    contains: ['<document source="index.md">']
`

func TestRun_RecordThenVerify(t *testing.T) {
	dir := project(t, regressCheck)
	cfg := load(t, dir)

	res, err := newRunner(baseline.ModeRecord).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Failed(), "%v", res.Failures)
	assert.Equal(t, 3, res.Checks)
	assert.NoError(t, res.Err())
	assert.FileExists(t, filepath.Join(dir, "baselines", "site_html_index.html.html"))
	assert.FileExists(t, filepath.Join(dir, "baselines", "site_doctrees_index.doctree.xml"))
	assert.NoDirExists(t, filepath.Join(dir, "docs", "_build"))

	res, err = newRunner(baseline.ModeVerify).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.Failed(), "%v", res.Failures)

	writeFile(t, filepath.Join(dir, "docs", "index.md"), "# Welcome\n\nHello *there*.\n")
	res, err = newRunner(baseline.ModeVerify).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, res.Failed())

	var mismatches int
	for _, f := range res.Failures {
		if errors.IsBaselineMismatch(f.Err) {
			mismatches++
			assert.Contains(t, f.String(), "+")
		}
	}
	assert.Equal(t, 2, mismatches)
	assert.True(t, errors.HasCategory(res.Err(), errors.CategoryValidation))
}

func TestRun_ContentAndWarnings(t *testing.T) {
	dir := project(t, `
scenario:
  srcdir: docs
  confoverrides:
    master_doc: start
outputs:
  - contains: ["Hello", "Goodbye"]
  - file: missing.html
`)
	res, err := newRunner(baseline.ModeVerify).Run(context.Background(), load(t, dir))
	require.NoError(t, err)

	require.Len(t, res.Failures, 3)
	assert.Equal(t, "build", res.Failures[0].Check)
	assert.Contains(t, res.Warnings, `master document "start" not found`)
	assert.Equal(t, "output/html/index.html", res.Failures[1].Check)
	assert.Contains(t, res.Failures[1].Err.Error(), `content missing "Goodbye"`)
	assert.Equal(t, "output/html/missing.html", res.Failures[2].Check)
	assert.True(t, errors.IsMissingArtifact(res.Failures[2].Err))
}

func TestRun_AllowWarnings(t *testing.T) {
	dir := project(t, `
allow_warnings: true
scenario:
  srcdir: docs
  confoverrides:
    master_doc: start
`)
	res, err := newRunner(baseline.ModeVerify).Run(context.Background(), load(t, dir))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.NotEmpty(t, res.Warnings)
}

func TestRun_BuildErrorStopsChecks(t *testing.T) {
	dir := project(t, "scenario:\n  srcdir: docs\n  buildername: latex\noutputs:\n  - file: index.tex\n")
	res, err := newRunner(baseline.ModeVerify).Run(context.Background(), load(t, dir))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.NotNil(t, res)
	assert.Zero(t, res.Checks)
}

func TestRun_MissingSource(t *testing.T) {
	cfg := &config.Config{Name: "x"}
	cfg.Scenario.SrcDir = filepath.Join(t.TempDir(), "nowhere")
	_, err := newRunner(baseline.ModeVerify).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestRun_KeepsSiblingBuildOutput(t *testing.T) {
	dir := project(t, "scenario:\n  srcdir: docs\n")
	sibling := filepath.Join(dir, "other", "_build", "html", "index.html")
	writeFile(t, sibling, "<html></html>")

	res, err := newRunner(baseline.ModeVerify).Run(context.Background(), load(t, dir))
	require.NoError(t, err)
	assert.False(t, res.Failed(), "%v", res.Failures)
	assert.NoDirExists(t, filepath.Join(dir, "docs", "_build"))
	assert.FileExists(t, sibling)
}
