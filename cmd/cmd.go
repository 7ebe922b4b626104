// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the player behind the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the player and serve the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the configured port",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the status endpoint in a browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Run the player with the terminal UI",
		Action:  r.TUI,
	}
}

// tabsCommand manages persisted tabs while the player is not running.
func tabsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tabs",
		Usage: "Persisted tab operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved tabs",
				Flags: append(outputFlags(), &cli.BoolFlag{
					Name:    "tracks",
					Aliases: []string{"t"},
					Usage:   "Include each tab's tracks",
				}),
				Action: r.TabsList,
			},
			{
				Name:  "open",
				Usage: "Open a tab from a library query",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Tab name (default: derived from the query)"},
					&cli.StringFlag{Name: "artist", Usage: "Match artist"},
					&cli.StringFlag{Name: "album", Usage: "Match album"},
					&cli.StringFlag{Name: "genre", Usage: "Match genre"},
					&cli.StringFlag{Name: "title", Usage: "Match title"},
				},
				Action: r.TabsOpen,
			},
			{
				Name:      "export",
				Usage:     "Export a saved tab",
				ArgsUsage: "<tab number>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, md, txt or m3u",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (default: derived from the tab name)",
					},
				},
				Action: r.TabsExport,
			},
		},
	}
}

// libraryCommand registers tracks.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Track library operations",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register audio files, reading their tags",
				ArgsUsage: "<file>...",
				Action:    r.LibraryAdd,
			},
		},
	}
}

// remoteCommand controls a running server over HTTP.
func remoteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Control a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Server base URL (default: the configured server address)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show playback status and the current track",
				Flags:  outputFlags(),
				Action: r.RemoteStatus,
			},
			{
				Name:   "tabs",
				Usage:  "List open tabs",
				Flags:  outputFlags(),
				Action: r.RemoteTabs,
			},
			{
				Name:      "command",
				Aliases:   []string{"cmd"},
				Usage:     "Send a transport command",
				ArgsUsage: "next | previous | play <n> | pause-or-resume | repeat-once | seek <secs>",
				Action:    r.RemoteCommand,
			},
			{
				Name:   "watch",
				Usage:  "Print events as they happen",
				Flags:  outputFlags()[:1],
				Action: r.RemoteWatch,
			},
		},
	}
}
