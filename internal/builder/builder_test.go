package builder

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_WithDefaults(t *testing.T) {
	req := Request{SrcDir: "/src/basic"}.WithDefaults()

	assert.Equal(t, "html", req.Builder)
	assert.Equal(t, filepath.Join("/src/basic", "_build", "html"), req.OutDir)
	assert.Equal(t, filepath.Join("/src/basic", "_build", "doctrees"), req.DoctreeDir)
	assert.Equal(t, io.Discard, req.Status)
	assert.Equal(t, io.Discard, req.Warning)

	custom := Request{SrcDir: "/src", Builder: " pseudoxml ", OutDir: "/out"}.WithDefaults()
	assert.Equal(t, "pseudoxml", custom.Builder)
	assert.Equal(t, "/out", custom.OutDir)
}

func TestRequest_HasTag(t *testing.T) {
	req := Request{Tags: []string{"draft", "internal"}}
	assert.True(t, req.HasTag("draft"))
	assert.False(t, req.HasTag("public"))
}

func TestReporter(t *testing.T) {
	var status, warning bytes.Buffer
	r := NewReporter(Request{Status: &status, Warning: &warning})

	r.Statusf("building [%s]", "html")
	r.Succeeded()
	assert.Equal(t, "building [html]\nbuild succeeded.\n", status.String())
	assert.Empty(t, warning.String())

	r.Warn("/src/index.md", 3, "include file not found: missing.md")
	r.Warn("/src/conf.yaml", 0, "unknown key")
	r.Warn("", 0, "no documents")
	r.Succeeded()

	assert.Equal(t,
		"/src/index.md:3: WARNING: include file not found: missing.md\n"+
			"/src/conf.yaml: WARNING: unknown key\n"+
			"WARNING: no documents\n",
		warning.String())
	assert.Contains(t, status.String(), "build succeeded, 3 warnings.\n")
}

func TestDriverFunc(t *testing.T) {
	called := false
	var d Driver = DriverFunc(func(_ context.Context, req Request) error {
		called = req.SrcDir == "/src"
		return nil
	})
	require.NoError(t, d.Build(context.Background(), Request{SrcDir: "/src"}))
	assert.True(t, called)
}
