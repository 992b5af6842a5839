package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reportpub/cmd/reportpub/commands"
	"git.home.luguber.info/inful/reportpub/internal/foundation/errors"
	"git.home.luguber.info/inful/reportpub/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Out: os.Stdout}
	parser := kong.Parse(cli,
		kong.Name("reportpub"),
		kong.Description("Versioned report publication with gated commits and HEAD parity checks."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(global, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
