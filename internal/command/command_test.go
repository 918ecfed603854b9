package command

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
)

func TestArgs(t *testing.T) {
	d := New("")
	args := d.Args(builder.Request{
		SrcDir:        "/src",
		Builder:       "html",
		FreshEnv:      true,
		ConfOverrides: map[string]any{"project": "Demo", "exclude_patterns": []any{"a", "b"}},
		Tags:          []string{"draft"},
	})

	assert.Equal(t, []string{
		"-b", "html",
		"-d", filepath.Join("/src", "_build", "doctrees"),
		"-E",
		"-D", "exclude_patterns=a,b",
		"-D", "project=Demo",
		"-t", "draft",
		"/src", filepath.Join("/src", "_build", "html"),
	}, args)
}

func TestCommandLine_QuotesArguments(t *testing.T) {
	d := New("sphinx-build")
	line := d.CommandLine(builder.Request{SrcDir: "/my docs", ConfOverrides: map[string]any{"project": "It's"}})

	assert.Contains(t, line, "sphinx-build -b html")
	assert.Contains(t, line, `'/my docs'`)
	assert.Contains(t, line, `-D 'project=It'"'"'s'`)
}

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestBuild_StreamsAndDocutilsConf(t *testing.T) {
	sh := requireShell(t)
	src := t.TempDir()
	d := New(sh, WithPrefixArgs("-c", `echo "running $2"; echo "conf.py: WARNING: odd" >&2; cat docutils.conf; echo "build succeeded."`, "sphinx"))

	var status, warnings bytes.Buffer
	err := d.Build(context.Background(), builder.Request{
		SrcDir:       src,
		DocutilsConf: "[general]\nsmart_quotes: no\n",
		Status:       &status,
		Warning:      &warnings,
	})
	require.NoError(t, err)

	assert.Equal(t, "running html\n[general]\nsmart_quotes: no\nbuild succeeded.\n", status.String())
	assert.Equal(t, "conf.py: WARNING: odd\n", warnings.String())
	assert.FileExists(t, filepath.Join(src, DocutilsConfFile))
}

func TestBuild_ExitCode(t *testing.T) {
	sh := requireShell(t)
	d := New(sh, WithPrefixArgs("-c", "exit 3", "sphinx"))

	err := d.Build(context.Background(), builder.Request{SrcDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	code, _ := classified.Context().Get("exit_code")
	assert.Equal(t, 3, code)
}

func TestBuild_MissingBinary(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "no-such-generator"))

	err := d.Build(context.Background(), builder.Request{SrcDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestBuild_Timeout(t *testing.T) {
	sh := requireShell(t)
	d := New(sh, WithPrefixArgs("-c", "sleep 5", "sphinx"), WithTimeout(50*time.Millisecond))

	start := time.Now()
	err := d.Build(context.Background(), builder.Request{SrcDir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryBuild))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestBuild_Env(t *testing.T) {
	sh := requireShell(t)
	d := New(sh, WithPrefixArgs("-c", `echo "$DOCHARNESS_PROBE"`, "sphinx"), WithEnv("DOCHARNESS_PROBE=on"))

	var status bytes.Buffer
	require.NoError(t, d.Build(context.Background(), builder.Request{SrcDir: t.TempDir(), Status: &status}))
	assert.Equal(t, "on\n", status.String())
}
