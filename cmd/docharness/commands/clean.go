package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docharness/internal/cleanup"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Root string `arg:"" optional:"" default:"." help:"Directory whose subdirectories may hold _build trees."`
}

func (c *CleanCmd) Run(g *Global, _ *CLI) error {
	removed, err := cleanup.RemoveBuildDirs(c.Root)
	g.Recorder.AddBuildDirsRemoved(len(removed))
	for _, dir := range removed {
		_, _ = fmt.Fprintln(g.Stdout, "removed", dir)
	}
	g.Logger.Info("Cleanup finished", logfields.Path(c.Root), logfields.Count(len(removed)))
	return err
}
