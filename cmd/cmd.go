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

// scanCommand handles scan lifecycle operations
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Run and monitor parliamentary scans",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Submit a scan and stream its progress",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "start",
						Usage:    "Start date (YYYY-MM-DD)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "end",
						Usage:    "End date (YYYY-MM-DD)",
						Required: true,
					},
					&cli.IntSliceFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Topic ID to search (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Source to search (defaults from config)",
					},
					&cli.StringSliceFlag{
						Name:  "member",
						Usage: "Target member ID (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "member-name",
						Usage: "Target member display name (repeatable)",
					},
				},
				Action: r.ScanRun,
			},
			{
				Name:  "watch",
				Usage: "Attach to a running scan's progress",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Scan ID to watch",
						Required: true,
					},
					&cli.IntSliceFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Topic IDs (rebuilds the keyword display)",
					},
				},
				Action: r.ScanWatch,
			},
			{
				Name:  "cancel",
				Usage: "Request cancellation of a running scan",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Scan ID to cancel",
						Required: true,
					},
				},
				Action: r.ScanCancel,
			},
			{
				Name:  "history",
				Usage: "List past scans",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Read from the local cache instead of the backend",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ScanHistory,
			},
		},
	}
}

// resultsCommand handles read models for finished scans
func resultsCommand(r *Runner) *cli.Command {
	idFlag := func() cli.Flag {
		return &cli.IntFlag{
			Name:     "id",
			Usage:    "Scan ID",
			Required: true,
		}
	}
	offlineFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:  "offline",
			Usage: "Read from the local cache instead of the backend",
		}
	}

	return &cli.Command{
		Name:  "results",
		Usage: "Browse and export scan results",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print a scan's stored results",
				Flags: []cli.Flag{
					idFlag(),
					offlineFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ResultsShow,
			},
			{
				Name:  "audit",
				Usage: "Print a scan's discard audit log",
				Flags: []cli.Flag{
					idFlag(),
					offlineFlag(),
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print every audit entry",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ResultsAudit,
			},
			{
				Name:  "export",
				Usage: "Export a scan's results to a file",
				Flags: []cli.Flag{
					idFlag(),
					offlineFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, or text",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.ResultsExport,
			},
		},
	}
}

// topicsCommand lists the configured topics and keywords
func topicsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "Topic and keyword operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List topics with their search keywords",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TopicsList,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and obtain a session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Backend username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Backend password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check session and classifier health",
				Action: r.AuthStatus,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a starter config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the cache database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive scan monitoring.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for scan monitoring",
		Action:  r.TUI,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, topicsCommand, scanCommand, resultsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}
