package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nocms/cmd/nocms/commands"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("nocms"),
		kong.Description("Incremental markdown site builder"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	err := ctx.Run(&cli)
	logger := global.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
}
