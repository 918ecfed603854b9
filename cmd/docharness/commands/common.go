package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docharness/internal/builder"
	"git.home.luguber.info/inful/docharness/internal/command"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/mdbuild"
	"git.home.luguber.info/inful/docharness/internal/metrics"
)

// Global carries state shared by every command.
type Global struct {
	Logger   *slog.Logger
	Stdout   io.Writer
	Stderr   io.Writer
	Recorder metrics.Recorder

	registry    *prom.Registry
	metricsFile string
}

// NewGlobal wires logging, output streams and metrics for cli.
func NewGlobal(cli *CLI) *Global {
	g := &Global{
		Logger:   slog.Default(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Recorder: metrics.NoopRecorder{},
	}
	if cli.MetricsTextfile != "" {
		g.registry = prom.NewRegistry()
		g.Recorder = metrics.NewPrometheusRecorder(g.registry)
		g.metricsFile = cli.MetricsTextfile
	}
	return g
}

// Flush writes collected metrics in the Prometheus text format when a
// textfile was requested.
func (g *Global) Flush() error {
	if g.registry == nil {
		return nil
	}
	if err := prom.WriteToTextfile(g.metricsFile, g.registry); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write metrics textfile").
			WithContext("path", g.metricsFile).Build()
	}
	return nil
}

// CLI definition & global flags.
type CLI struct {
	Verbose         bool             `short:"v" help:"Enable verbose logging"`
	Version         kong.VersionFlag `name:"version" help:"Show version and exit"`
	Command         string           `name:"command" env:"DOCHARNESS_COMMAND" help:"External generator to run instead of the built-in Markdown driver (e.g. sphinx-build)."`
	CommandTimeout  time.Duration    `name:"command-timeout" default:"5m" help:"Timeout for one external generator run."`
	MetricsTextfile string           `name:"metrics-textfile" help:"Write Prometheus metrics to this file on exit."`

	Build   BuildCmd   `cmd:"" help:"Build a documentation source tree"`
	Clean   CleanCmd   `cmd:"" help:"Remove _build directories below a fixture root"`
	Output  OutputCmd  `cmd:"" help:"Print a rendered page, optionally comparing it to a baseline"`
	Doctree DoctreeCmd `cmd:"" help:"Print a serialized document tree as pseudo-XML"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild a source tree whenever it changes"`
	Check   CheckCmd   `cmd:"" help:"Run check files: build a scenario and verify its artifacts"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// Driver returns the build driver selected by the global flags.
func (c *CLI) Driver(logger *slog.Logger) builder.Driver {
	if fields := strings.Fields(c.Command); len(fields) > 0 {
		return command.New(fields[0],
			command.WithPrefixArgs(fields[1:]...),
			command.WithTimeout(c.CommandTimeout),
			command.WithLogger(logger))
	}
	return mdbuild.New(mdbuild.WithLogger(logger))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
