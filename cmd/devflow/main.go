package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/devflow/cmd/devflow/commands"
	ferrors "git.home.luguber.info/inful/devflow/internal/foundation/errors"
	"git.home.luguber.info/inful/devflow/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("devflow"),
		kong.Description("Incremental template compiler and front-end development workflow."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)
	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
