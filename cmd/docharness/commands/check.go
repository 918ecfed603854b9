package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docharness/internal/baseline"
	"git.home.luguber.info/inful/docharness/internal/check"
	"git.home.luguber.info/inful/docharness/internal/config"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/logfields"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Files      []string `arg:"" name:"file" type:"existingfile" help:"Check files to run."`
	Record     bool     `help:"Write regression baselines instead of comparing."`
	WorkRoot   string   `name:"work-root" help:"Directory receiving fixture copies (defaults to the system temp dir)."`
	ShowStatus bool     `name:"show-status" help:"Print the build status stream of each scenario."`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := []check.Option{
		check.WithMode(baseline.ModeFor(c.Record)),
		check.WithWorkRoot(c.WorkRoot),
		check.WithRecorder(g.Recorder),
		check.WithLogger(g.Logger),
	}
	if c.ShowStatus {
		opts = append(opts, check.WithStatus(g.Stdout))
	}
	runner := check.NewRunner(root.Driver(g.Logger), opts...)

	failed := 0
	for _, file := range c.Files {
		cfg, norm, err := config.Load(file)
		if err != nil {
			return err
		}
		for _, w := range norm.Warnings {
			g.Logger.Warn(w, logfields.Path(file))
		}

		res, err := runner.Run(ctx, cfg)
		if err != nil {
			return err
		}
		if !res.Failed() {
			_, _ = fmt.Fprintf(g.Stdout, "PASS %s (%d checks)\n", res.Name, res.Checks)
			continue
		}
		failed++
		_, _ = fmt.Fprintf(g.Stdout, "FAIL %s (%d of %d checks)\n", res.Name, len(res.Failures), res.Checks)
		for _, f := range res.Failures {
			_, _ = fmt.Fprintf(g.Stdout, "  %s\n", f)
		}
		if res.Warnings != "" {
			_, _ = fmt.Fprintf(g.Stdout, "  warnings:\n%s", res.Warnings)
		}
	}

	if failed > 0 {
		return errors.ValidationError(fmt.Sprintf("%d of %d check files failed", failed, len(c.Files))).Build()
	}
	return nil
}
