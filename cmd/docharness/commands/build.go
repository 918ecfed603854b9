package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

// BuildFlags are shared by build and watch.
type BuildFlags struct {
	SrcDir       string            `arg:"" name:"srcdir" type:"existingdir" help:"Documentation source directory."`
	Builder      string            `short:"b" default:"html" help:"Builder to run."`
	Define       map[string]string `short:"D" name:"define" help:"Override a configuration value (key=value)."`
	Tags         []string          `short:"t" name:"tag" help:"Activate a tag for only directives."`
	DocutilsConf string            `name:"docutilsconf" type:"existingfile" help:"File with parser settings."`
}

func (f *BuildFlags) request(freshEnv bool, status, warning io.Writer) (builder.Request, error) {
	src, err := filepath.Abs(f.SrcDir)
	if err != nil {
		return builder.Request{}, errors.WrapError(err, errors.CategoryFileSystem, "resolve source directory").
			WithContext("path", f.SrcDir).Build()
	}
	req := builder.Request{
		SrcDir:   src,
		Builder:  f.Builder,
		FreshEnv: freshEnv,
		Tags:     f.Tags,
		Status:   status,
		Warning:  warning,
	}
	if len(f.Define) > 0 {
		req.ConfOverrides = make(map[string]any, len(f.Define))
		for k, v := range f.Define {
			req.ConfOverrides[k] = v
		}
	}
	if f.DocutilsConf != "" {
		// #nosec G304 -- operator supplied settings file
		data, err := os.ReadFile(f.DocutilsConf)
		if err != nil {
			return builder.Request{}, errors.WrapError(err, errors.CategoryFileSystem, "read docutilsconf").
				WithContext("path", f.DocutilsConf).Build()
		}
		req.DocutilsConf = string(data)
	}
	return req.WithDefaults(), nil
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`

	FreshEnv       bool `short:"E" name:"fresh-env" help:"Ignore the saved environment and rebuild every document."`
	WarningIsError bool `short:"W" name:"warning-is-error" help:"Fail when the build emits warnings."`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	var warnings bytes.Buffer
	req, err := b.request(b.FreshEnv, g.Stdout, io.MultiWriter(g.Stderr, &warnings))
	if err != nil {
		return err
	}
	if err := runBuild(ctx, g, root.Driver(g.Logger), req, &warnings); err != nil {
		return err
	}
	if b.WarningIsError && warnings.Len() > 0 {
		return errors.ValidationError("build emitted warnings").
			WithContext("srcdir", req.SrcDir).Build()
	}
	return nil
}

// runBuild invokes driver once; warnings receives a copy of the warning
// stream and selects the recorded outcome.
func runBuild(ctx context.Context, g *Global, driver builder.Driver, req builder.Request, warnings *bytes.Buffer) error {
	g.Logger.Info("Starting documentation build",
		logfields.SrcDir(req.SrcDir),
		logfields.Builder(req.Builder))
	start := time.Now()
	err := driver.Build(ctx, req)
	g.Recorder.ObserveBuildDuration(req.Builder, time.Since(start))
	if err != nil {
		g.Recorder.IncBuildOutcome(req.Builder, metrics.OutcomeFailed)
		if _, ok := errors.AsClassified(err); ok {
			return err
		}
		return errors.WrapError(err, errors.CategoryBuild, "build failed").
			WithContext("srcdir", req.SrcDir).Build()
	}
	outcome := metrics.OutcomeSuccess
	if warnings.Len() > 0 {
		outcome = metrics.OutcomeWarnings
	}
	g.Recorder.IncBuildOutcome(req.Builder, outcome)
	g.Logger.Info("Build finished",
		logfields.SrcDir(req.SrcDir),
		logfields.Duration(time.Since(start)))
	return nil
}
