// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/gestaopro/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag(r *Runner) cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   r.configPath,
	}
}

// setupCommand handles setup operations for the config file and the settings store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with the defaults",
				Flags:  []cli.Flag{configFlag(r)},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the settings store and run migrations",
				Flags:  []cli.Flag{configFlag(r)},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent settings store migration",
				Flags:  []cli.Flag{configFlag(r)},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Verify dashboard credentials",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in once and print the user; nothing is stored",
				Flags: append(credentialFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.AuthLogin,
			},
			{
				Name:  "check",
				Usage: "Report whether the user may open a section",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "permission"},
				},
				Flags:  credentialFlags(),
				Action: r.AuthCheck,
			},
		},
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, json, csv or markdown",
		Value:   value,
	}
}

func dataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "JSON object to send",
		Required: true,
	}
}

// entityCommand handles record operations on dashboard sections
func entityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "entity",
		Aliases: []string{"e"},
		Usage:   "List and edit the records behind a dashboard section",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every record of a section",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "section"},
				},
				Flags:  append(credentialFlags(), formatFlag(string(formatter.FormatTable))),
				Action: r.EntityList,
			},
			{
				Name:  "create",
				Usage: "Create a record from a JSON object",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "section"},
				},
				Flags:  append(credentialFlags(), dataFlag()),
				Action: r.EntityCreate,
			},
			{
				Name:  "update",
				Usage: "Update fields of a record",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "section"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  append(credentialFlags(), dataFlag()),
				Action: r.EntityUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a record",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "section"},
					&cli.StringArg{Name: "id"},
				},
				Flags:  credentialFlags(),
				Action: r.EntityDelete,
			},
		},
	}
}

// audioCommand handles alert sound files
func audioCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audio",
		Usage: "Alert sound files",
		Commands: []*cli.Command{
			{
				Name:  "url",
				Usage: "Print where an audio file is served",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.AudioURL,
			},
			{
				Name:  "upload",
				Usage: "Upload an audio file and record the receipt locally",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  credentialFlags(),
				Action: r.AudioUpload,
			},
			{
				Name:  "delete",
				Usage: "Forget a recorded upload; the file stays on the backend",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.AudioDelete,
			},
			{
				Name:  "list",
				Usage: "List recorded uploads",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AudioList,
			},
		},
	}
}

// alertsCommand handles sound alert preferences
func alertsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "Sound alert preferences",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the saved alert settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AlertsShow,
			},
			{
				Name:  "set",
				Usage: "Change the alert settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "disabled, on-order or interval",
					},
					&cli.IntFlag{
						Name:  "interval",
						Usage: "Minutes between alerts in interval mode (1-60)",
					},
					&cli.StringFlag{
						Name:  "audio",
						Usage: "Name of the alert sound",
					},
				},
				Action: r.AlertsSet,
			},
			{
				Name:   "watch",
				Usage:  "Play alerts in the terminal until interrupted; on-order mode needs credentials",
				Flags:  credentialFlags(),
				Action: r.AlertsWatch,
			},
		},
	}
}

// backupCommand handles entity backups
func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Copy backend records to local files",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Back up every section the user may open",
				Flags: append(credentialFlags(),
					formatFlag(""),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: gestaopro_backup_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers (max 10)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Backend requests per second",
					},
				),
				Action: r.BackupRun,
			},
		},
	}
}

// serveCommand starts the local dashboard gateway
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local dashboard gateway",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the dashboard status page in a browser",
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
		Usage:   "Launch the interactive terminal dashboard",
		Action:  r.TUI,
	}
}
