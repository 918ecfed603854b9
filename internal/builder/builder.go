package builder

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

const (
	// BuildDir is the generated-output directory inside a source tree.
	BuildDir = "_build"
	// DoctreeFolder holds serialized trees below BuildDir.
	DoctreeFolder = "doctrees"
	// DefaultBuilder is used when a request names no builder.
	DefaultBuilder = "html"
	// SuccessMarker starts the last status line of a completed build.
	SuccessMarker = "build succeeded"
)

// Request describes one build invocation.
type Request struct {
	SrcDir        string
	OutDir        string
	DoctreeDir    string
	Builder       string
	FreshEnv      bool
	ConfOverrides map[string]any
	Tags          []string
	DocutilsConf  string
	Status        io.Writer
	Warning       io.Writer
}

// Driver performs a complete build of a source tree.
type Driver interface {
	Build(ctx context.Context, req Request) error
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(ctx context.Context, req Request) error

// Build calls f.
func (f DriverFunc) Build(ctx context.Context, req Request) error { return f(ctx, req) }

// OutputDir returns <srcdir>/_build/<folder>.
func OutputDir(srcdir, folder string) string {
	return filepath.Join(srcdir, BuildDir, folder)
}

// WithDefaults fills the builder name, the output layout and missing streams.
func (r Request) WithDefaults() Request {
	r.Builder = strings.TrimSpace(r.Builder)
	if r.Builder == "" {
		r.Builder = DefaultBuilder
	}
	if r.OutDir == "" {
		r.OutDir = OutputDir(r.SrcDir, r.Builder)
	}
	if r.DoctreeDir == "" {
		r.DoctreeDir = OutputDir(r.SrcDir, DoctreeFolder)
	}
	if r.Status == nil {
		r.Status = io.Discard
	}
	if r.Warning == nil {
		r.Warning = io.Discard
	}
	return r
}

// HasTag reports whether tag is active for the request.
func (r Request) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
