// Package main provides the entry point for the `assetbook` command-line tool.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/chiaying/assetbook/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	cmd.Register(commander)

	complete.Complete("assetbook", cmd.NewCommanderCompleter(commander))

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
