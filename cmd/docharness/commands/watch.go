package commands

import (
	"bytes"
	"context"
	"io"
	"time"

	"git.home.luguber.info/inful/docharness/internal/logfields"
	"git.home.luguber.info/inful/docharness/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`

	Debounce time.Duration `default:"300ms" help:"Quiet period after the last change before rebuilding."`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	driver := root.Driver(g.Logger)
	rebuild := func(fresh bool) func(context.Context) error {
		return func(ctx context.Context) error {
			var warnings bytes.Buffer
			req, err := w.request(fresh, g.Stdout, io.MultiWriter(g.Stderr, &warnings))
			if err != nil {
				return err
			}
			return runBuild(ctx, g, driver, req, &warnings)
		}
	}

	// The first build starts from a fresh environment; later ones are incremental.
	if err := rebuild(true)(ctx); err != nil {
		g.Logger.Warn("initial build failed", logfields.Error(err))
	}

	watcher, err := watch.New(w.SrcDir, rebuild(false),
		watch.WithDebounce(w.Debounce),
		watch.WithLogger(g.Logger))
	if err != nil {
		return err
	}
	g.Logger.Info("Watching for changes", logfields.SrcDir(watcher.Root()))
	return watcher.Run(ctx)
}
