package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"autolink/internal/config"
)

const DESCRIPTION = `autolink opens links on a weekly timetable.

Each entry has a name, a link, and any number of weekly times such as
"mon 09:00". While the loop is running, an entry is opened once per matching
minute; when every time of the week has fired the timetable starts over.`

var (
	cfgPath string

	// stdout is swapped in tests.
	stdout io.Writer = os.Stdout

	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the config file (JSON or YAML)",
			Value:       config.DefaultPath(),
			Destination: &cfgPath,
		},
	}
)

func Execute(args []string) error {
	app := cli.App{
		Name:        "autolink",
		HelpName:    "autolink",
		Usage:       "open links on a weekly timetable",
		UsageText:   "autolink [--config FILE] <command> [arguments...]",
		Description: DESCRIPTION,
		Version:     version,
		Flags:       globalFlags,
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "run the scheduler with an interactive console",
				Action: run,
				Flags:  runFlags,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "show stored entries",
				Action:  list,
			},
			{
				Name:   "next",
				Usage:  "show upcoming launches",
				Action: next,
				Flags:  nextFlags,
			},
			{
				Name:            "add",
				Usage:           "add an entry",
				UsageText:       `autolink add <name> <uri> [<day> <HH:MM>]`,
				Action:          editCommand("add"),
				SkipFlagParsing: true,
			},
			{
				Name:            "edit",
				Usage:           "change an entry",
				UsageText:       `autolink edit <n> [name=..] [uri=..] [+time="<day> <HH:MM>"] [-time=<k>]`,
				Action:          editCommand("edit"),
				// Entry edits such as -time=1 are arguments, not flags.
				SkipFlagParsing: true,
			},
			{
				Name:            "remove",
				Aliases:         []string{"rm"},
				Usage:           "remove an entry",
				UsageText:       "autolink remove <n>",
				Action:          editCommand("remove"),
				SkipFlagParsing: true,
			},
			{
				Name:            "launch",
				Usage:           "open an entry now",
				UsageText:       "autolink launch <n>",
				Action:          launch,
				SkipFlagParsing: true,
			},
		},
	}
	return app.Run(args)
}

var version = "dev"

func main() {
	if err := Execute(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "autolink: %s\n", err.Error())
		os.Exit(1)
	}
}
