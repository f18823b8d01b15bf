package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/scry-notes/internal/config"
	"github.com/phrazzld/scry-notes/internal/deckfile"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/generation"
	"github.com/phrazzld/scry-notes/internal/platform/memory"
	"github.com/phrazzld/scry-notes/internal/platform/postgres"
	"github.com/phrazzld/scry-notes/internal/service"
	"github.com/phrazzld/scry-notes/internal/service/study"
	"github.com/phrazzld/scry-notes/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the in-memory store is in use.
	db        *sql.DB
	deckStore store.DeckStore

	scheduler    schedule.Scheduler
	generator    generation.Generator
	eventEmitter *events.InMemoryEventEmitter
	deckService  service.DeckService
	studyService study.StudyService
}

// newApplication creates a new application instance with all dependencies initialized.
// A configured database URL selects the postgres store; otherwise decks live in memory.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if cfg.UsesDatabase() {
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.deckStore = postgres.NewDeckStore(db, logger)
		logger.Info("using postgres deck store")
	} else {
		app.deckStore = memory.NewDeckStore(logger)
		logger.Info("using in-memory deck store")
	}

	params, err := schedule.NewParams(schedule.ParamsConfig{
		HistorySize:      cfg.Study.HistorySize,
		MinRequeueOffset: cfg.Study.MinRequeueOffset,
		MaxRequeueOffset: cfg.Study.MaxRequeueOffset,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create scheduling parameters: %w", err)
	}

	rng := schedule.NewRandomSource(cfg.Study.RandomSeed)
	app.scheduler = schedule.NewScheduler(params, rng)
	generator := generation.NewNoteGenerator(rng, logger)
	app.generator = generator

	if !cfg.UsesDatabase() && cfg.Study.SeedDefaultDeck {
		if err := app.seedDefaultDeck(ctx, generator); err != nil {
			app.cleanup()
			return nil, err
		}
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLogHandler(logger))

	app.deckService, err = service.NewDeckService(app.deckStore, app.generator, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create deck service: %w", err)
	}

	app.studyService = study.NewStudyService(
		app.deckStore,
		app.scheduler,
		app.eventEmitter,
		params.HistorySize,
		logger,
	)

	logger.Info("application initialized",
		slog.Int("history_size", params.HistorySize),
		slog.Int("min_requeue_offset", params.MinRequeueOffset),
		slog.Int("max_requeue_offset", params.MaxRequeueOffset))
	return app, nil
}

// seedDefaultDeck stores the grand staff deck when the store holds no decks.
func (app *application) seedDefaultDeck(ctx context.Context, gen *generation.NoteGenerator) error {
	existing, err := app.deckStore.ListDecks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	deck, err := gen.GrandStaffDeck(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate default deck: %w", err)
	}
	if err := app.deckStore.CreateDeck(ctx, deck); err != nil {
		return fmt.Errorf("failed to store default deck: %w", err)
	}
	app.logger.Info("seeded default deck",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", deck.Len()))
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// importFile decodes a YAML deck file and stores every deck in it.
func (app *application) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open deck file: %w", err)
	}
	defer f.Close()

	decks, err := deckfile.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return app.deckService.ImportDecks(ctx, decks)
}

// exportDecks writes every stored deck to out as YAML.
func (app *application) exportDecks(ctx context.Context, out io.Writer) error {
	summaries, err := app.deckService.ListDecks(ctx)
	if err != nil {
		return err
	}

	decks := make([]*domain.Deck, 0, len(summaries))
	for _, s := range summaries {
		deck, err := app.deckService.GetDeck(ctx, s.ID)
		if err != nil {
			return err
		}
		decks = append(decks, deck)
	}
	return deckfile.Encode(out, decks)
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
		app.db = nil
	}
	app.logger.Info("application shutdown completed")
}
