package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/routegen/cmd/routegen/commands"
	"git.home.luguber.info/inful/routegen/internal/foundation/errors"
	"git.home.luguber.info/inful/routegen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("routegen"),
		kong.Description("Render route modules into a static output tree."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Stdout: os.Stdout}, cli)
	os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err))
}
