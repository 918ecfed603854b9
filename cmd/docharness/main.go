package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docharness/cmd/docharness/commands"
	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
	"git.home.luguber.info/inful/docharness/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docharness"),
		kong.Description("Build documentation source trees and verify their artifacts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := commands.NewGlobal(cli)
	err := parser.Run(global, cli)
	if flushErr := global.Flush(); err == nil {
		err = flushErr
	}
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
