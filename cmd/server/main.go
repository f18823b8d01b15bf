// Package main implements the scry-notes command: the HTTP study server and
// the maintenance commands around it (migrations, deck import/export and
// offline deck generation).
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newCommand builds the root command and its subcommands.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "scry-notes",
		Usage: "Flashcard study server with music note drills",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (default: ./config.yaml if present)",
				Sources: cli.EnvVars("SCRY_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a dotenv file (default: ./.env if present)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "seed",
						Usage: "YAML deck file loaded into the store before serving",
					},
				},
			},
			{
				Name:      "migrate",
				Usage:     "Run database migrations (up, down, reset, status, version)",
				ArgsUsage: "[command]",
				Action:    migrateAction,
			},
			{
				Name:      "import",
				Usage:     "Load decks from a YAML file into the database",
				ArgsUsage: "<file>",
				Action:    importAction,
			},
			{
				Name:   "export",
				Usage:  "Write every stored deck to stdout as YAML",
				Action: exportAction,
			},
			{
				Name:   "generate",
				Usage:  "Print a generated note deck as YAML",
				Action: generateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Deck name"},
					&cli.StringFlag{Name: "key", Usage: "Key signature", Value: "C Major"},
					&cli.StringFlag{Name: "time", Usage: "Time signature", Value: "4/4"},
					&cli.IntFlag{Name: "count", Usage: "Number of cards", Value: 20},
					&cli.IntFlag{Name: "min-octave", Usage: "Lowest octave", Value: 4},
					&cli.IntFlag{Name: "max-octave", Usage: "Highest octave", Value: 5},
				},
			},
		},
	}
}
