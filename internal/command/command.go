// Package command builds documentation by running an external generator
// such as sphinx-build. The generator's stdout becomes the status stream and
// its stderr the warning stream.
package command

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

const (
	// DefaultBinary is run when no binary is configured.
	DefaultBinary = "sphinx-build"
	// DocutilsConfFile receives the request's parser settings.
	DocutilsConfFile = "docutils.conf"
	// DefaultTimeout bounds one build.
	DefaultTimeout = 5 * time.Minute
)

// Driver runs an external build command.
type Driver struct {
	binary  string
	prefix  []string
	env     []string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithPrefixArgs inserts arguments between the binary and the build
// arguments, e.g. "-m sphinx" for a Python interpreter.
func WithPrefixArgs(args ...string) Option {
	return func(d *Driver) { d.prefix = append([]string(nil), args...) }
}

// WithEnv adds KEY=VALUE entries to the inherited environment.
func WithEnv(env ...string) Option {
	return func(d *Driver) { d.env = append(d.env, env...) }
}

// WithTimeout bounds each build. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns a driver running binary, or DefaultBinary when binary is empty.
func New(binary string, opts ...Option) *Driver {
	if binary == "" {
		binary = DefaultBinary
	}
	d := &Driver{binary: binary, timeout: DefaultTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ builder.Driver = (*Driver)(nil)

// Args returns the generator arguments for req:
//
//	-b <builder> -d <doctreedir> [-E] [-D key=value]... [-t tag]... <srcdir> <outdir>
//
// Overrides are emitted in key order.
func (d *Driver) Args(req builder.Request) []string {
	req = req.WithDefaults()
	args := append([]string(nil), d.prefix...)
	args = append(args, "-b", req.Builder, "-d", req.DoctreeDir)
	if req.FreshEnv {
		args = append(args, "-E")
	}
	keys := make([]string, 0, len(req.ConfOverrides))
	for k := range req.ConfOverrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-D", k+"="+overrideValue(req.ConfOverrides[k]))
	}
	for _, tag := range req.Tags {
		args = append(args, "-t", tag)
	}
	return append(args, req.SrcDir, req.OutDir)
}

// CommandLine renders the full invocation for logs, quoted for a POSIX shell.
func (d *Driver) CommandLine(req builder.Request) string {
	return shellescape.QuoteCommand(append([]string{d.binary}, d.Args(req)...))
}

// Build implements builder.Driver.
func (d *Driver) Build(ctx context.Context, req builder.Request) error {
	req = req.WithDefaults()

	if req.DocutilsConf != "" {
		path := filepath.Join(req.SrcDir, DocutilsConfFile)
		if err := os.WriteFile(path, []byte(req.DocutilsConf), 0o600); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write "+DocutilsConfFile).
				WithContext("path", path).Build()
		}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.logger.Info("Running build command",
		slog.String("command", d.CommandLine(req)),
		logfields.Builder(req.Builder),
		logfields.SrcDir(req.SrcDir))

	start := time.Now()
	// The binary and arguments come from harness configuration, not from build input.
	cmd := exec.CommandContext(ctx, d.binary, d.Args(req)...) //nolint:gosec // runs the configured generator
	cmd.Dir = req.SrcDir
	if len(d.env) > 0 {
		cmd.Env = append(os.Environ(), d.env...)
	}
	cmd.Stdout = req.Status
	cmd.Stderr = req.Warning
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	d.logger.Debug("Build command finished",
		logfields.Builder(req.Builder),
		logfields.Duration(time.Since(start)),
		logfields.Error(err))
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WrapError(ctxErr, errors.CategoryBuild, "build command interrupted").
			WithContext("command", d.binary).Build()
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return errors.WrapError(err, errors.CategoryBuild, "build command failed").
			WithContext("command", d.binary).
			WithContext("exit_code", exitErr.ExitCode()).Build()
	}
	if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, os.ErrNotExist) {
		return errors.WrapError(err, errors.CategoryConfig, "build command not found").
			Fatal().WithContext("command", d.binary).Build()
	}
	return errors.WrapError(err, errors.CategoryBuild, "run build command").
		WithContext("command", d.binary).Build()
}

func overrideValue(v any) string {
	switch vv := v.(type) {
	case []string:
		return strings.Join(vv, ",")
	case []any:
		parts := make([]string, len(vv))
		for i, p := range vv {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(vv)
	}
}
