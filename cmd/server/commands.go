package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/scry-notes/internal/config"
	"github.com/phrazzld/scry-notes/internal/deckfile"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/generation"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/platform/postgres"
	"github.com/urfave/cli/v3"
)

// errDatabaseRequired is returned by commands that only make sense against
// a persistent store.
var errDatabaseRequired = errors.New("database.url must be configured for this command")

// loadConfig loads configuration using the root command's file flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigFile: cmd.String("config"),
		EnvFile:    cmd.String("env-file"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration and a logger. Maintenance commands log to
// stderr so stdout stays clean for YAML output.
func setup(cmd *cli.Command, out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.SetupWithWriter(cfg.Server, out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd, os.Stdout)
	if err != nil {
		return err
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("database", cfg.UsesDatabase()))

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if seed := cmd.String("seed"); seed != "" {
		n, err := app.importFile(ctx, seed)
		if err != nil {
			return err
		}
		log.Info("seed decks loaded", slog.String("file", seed), slog.Int("decks", n))
	}

	return app.Run(ctx)
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	if !cfg.UsesDatabase() {
		return errDatabaseRequired
	}

	command := cmd.Args().First()
	if command == "" {
		command = "up"
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	return postgres.Migrate(ctx, db, command, log)
}

func importAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("import requires a file argument")
	}

	cfg, log, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	if !cfg.UsesDatabase() {
		return errDatabaseRequired
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	n, err := app.importFile(ctx, path)
	if err != nil {
		return err
	}
	log.Info("decks imported", slog.String("file", path), slog.Int("decks", n))
	return nil
}

func exportAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	if !cfg.UsesDatabase() {
		return errDatabaseRequired
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	return app.exportDecks(ctx, os.Stdout)
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}

	req := generation.GenerateRequest{
		Name:          cmd.String("name"),
		KeySignature:  cmd.String("key"),
		TimeSignature: cmd.String("time"),
		Count:         int(cmd.Int("count")),
		MinOctave:     int(cmd.Int("min-octave")),
		MaxOctave:     int(cmd.Int("max-octave")),
	}
	gen := generation.NewNoteGenerator(schedule.NewRandomSource(cfg.Study.RandomSeed), log)
	return writeGeneratedDeck(ctx, gen, req, os.Stdout)
}

// writeGeneratedDeck generates one deck and writes it as YAML.
func writeGeneratedDeck(ctx context.Context, gen generation.Generator, req generation.GenerateRequest, out io.Writer) error {
	deck, err := gen.GenerateDeck(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to generate deck: %w", err)
	}
	return deckfile.Encode(out, []*domain.Deck{deck})
}
