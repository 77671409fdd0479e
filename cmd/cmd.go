// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// extractCommand fetches a playlist and stores it as a pending raw document.
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Fetch a Spotify playlist and store it as a raw document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist URL, URI or ID (default: spotify.playlist_url)",
			},
		},
		Action: r.Extract,
	}
}

// transformCommand processes every pending raw document.
func transformCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transform",
		Aliases: []string{"run"},
		Usage:   "Transform pending raw documents into album, artist and song tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Process documents without writing outputs or archiving",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Confirm and follow the run in an interactive TUI",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Transform,
	}
}

// pipelineCommand runs extraction followed by transformation.
func pipelineCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pipeline",
		Usage: "Extract a playlist, then transform every pending document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist URL, URI or ID (default: spotify.playlist_url)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Transform without writing outputs or archiving",
			},
		},
		Action: r.Pipeline,
	}
}

// inspectCommand prints the tables derived from one raw document.
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the tables derived from a raw document without writing anything",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "key",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "table",
				Usage: "Only print one table as CSV (album, artist or song)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum rows per table in the summary",
				Value: 10,
			},
		},
		Action: r.Inspect,
	}
}

// setupCommand handles setup operations for configuration and the run history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the file to create",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recently applied migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// runsCommand reads the run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect transformation run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show one run and its documents",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsShow,
			},
		},
	}
}
