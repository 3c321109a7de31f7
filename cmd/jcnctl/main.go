// Command jcnctl inspects the dashboard's caches, score tables and quote providers.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/jcnfinancial/dashboard-api/internal/cli"
	"github.com/jcnfinancial/dashboard-api/pkg/logger"
)

var (
	plain    = flag.Bool("plain", false, "print raw markdown instead of rendering it")
	logLevel = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	app := &cli.App{Out: os.Stdout, Err: os.Stderr}
	cli.Register(commander, app)

	flag.Parse()
	app.Plain = *plain
	app.Log = logger.New(logger.Config{Level: *logLevel, Pretty: true, Output: os.Stderr})

	os.Exit(int(commander.Execute(context.Background())))
}
