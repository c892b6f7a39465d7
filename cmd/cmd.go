// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/wpx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// setupCommand handles config and ledger initialisation.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run ledger and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// healthCommand checks both ends of a migration.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Ping the WordPress database and the content API health endpoint",
		Action: r.Health,
	}
}

func migrateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Maximum entities in flight (overrides migration.workers)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show live progress bars instead of log lines",
		},
		&cli.StringFlag{
			Name:    "report",
			Aliases: []string{"o"},
			Usage:   "Write the run report to this file or directory",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Report format: json, markdown, csv or txt",
			Value:   "json",
		},
		&cli.BoolFlag{
			Name:  "no-ledger",
			Usage: "Do not record the run in the local ledger",
		},
	}
}

// migrateCommand moves entities to the content API, one kind or all of them.
func migrateCommand(r *Runner) *cli.Command {
	kind := func(name, usage string, kinds ...tasks.Kind) *cli.Command {
		return &cli.Command{
			Name:   name,
			Usage:  usage,
			Flags:  migrateFlags(),
			Action: r.migrateAction(kinds...),
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate WordPress content to the content API",
		Commands: []*cli.Command{
			kind("authors", "Migrate authors and their avatars", tasks.KindAuthors),
			kind("tags", "Migrate category terms as tags", tasks.KindTags),
			kind("posts", "Migrate published posts and their images", tasks.KindPosts),
			kind("all", "Migrate authors, tags and posts in order", tasks.AllKinds...),
		},
	}
}

// rewriteCommand prints destination paths for legacy URLs.
func rewriteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Print the destination path for each legacy URL",
		ArgsUsage: "<url>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Rewrite,
	}
}

// transformCommand renders a post body file the way a migration would.
func transformCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "transform",
		Usage:     "Print the transformed HTML of a post body file (- reads stdin)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Skip sanitising",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the HTML with its asset list as JSON",
			},
		},
		Action: r.Transform,
	}
}

// historyCommand reads the run ledger.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect previous migration runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
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
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show a run and its failed entities",
				ArgsUsage: "<run-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON with every entity",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// apiCommand handles direct calls to the content API.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the content API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path and print the response",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a path",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
