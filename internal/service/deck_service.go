package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"github.com/phrazzld/scry-notes/internal/generation"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/store"
)

// CardInput describes a card to add. Plain cards need Prompt and Answer. Note
// cards need Note; Answer defaults to the note's spelled name and the prompt
// is derived from the note.
type CardInput struct {
	Prompt string
	Answer string
	Note   *domain.Note
}

// DeckService provides deck and card management.
type DeckService interface {
	// CreateDeck creates a deck holding the given cards, in order.
	CreateDeck(ctx context.Context, name, description string, cards []CardInput) (*domain.Deck, error)

	// GetDeck retrieves a deck with its cards in queue order.
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListDecks returns a summary of every deck.
	ListDecks(ctx context.Context) ([]domain.DeckSummary, error)

	// DeleteDeck removes a deck and its cards.
	DeleteDeck(ctx context.Context, id uuid.UUID) error

	// AddCard appends a card to the end of a deck's queue.
	AddCard(ctx context.Context, deckID uuid.UUID, input CardInput) (*domain.Card, error)

	// RemoveCard removes a card from a deck.
	RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error

	// GenerateDeck builds and stores a deck of random note cards.
	GenerateDeck(ctx context.Context, req generation.GenerateRequest) (*domain.Deck, error)

	// ImportDecks stores already built decks, stopping at the first failure.
	// It returns how many decks were stored.
	ImportDecks(ctx context.Context, decks []*domain.Deck) (int, error)
}

// deckServiceImpl implements the DeckService interface
type deckServiceImpl struct {
	decks     store.DeckStore
	generator generation.Generator
	logger    *slog.Logger
}

// NewDeckService creates a new DeckService.
// It returns an error if any of the required dependencies are nil.
func NewDeckService(
	decks store.DeckStore,
	generator generation.Generator,
	logger *slog.Logger,
) (DeckService, error) {
	if decks == nil {
		return nil, fmt.Errorf("%w: deck store cannot be nil", domain.ErrValidation)
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: generator cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &deckServiceImpl{
		decks:     decks,
		generator: generator,
		logger:    logger.With(slog.String("component", "deck_service")),
	}, nil
}

// CreateDeck implements DeckService.CreateDeck
func (s *deckServiceImpl) CreateDeck(
	ctx context.Context,
	name, description string,
	inputs []CardInput,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(name, description)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for i, input := range inputs {
		card, err := buildCard(input)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidInput, i, err)
		}
		if err := deck.AddCard(card); err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidInput, i, err)
		}
	}

	if err := s.decks.CreateDeck(ctx, deck); err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_name", deck.Name))
		return nil, mapStoreError("create_deck", "failed to save deck", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", deck.Len()))
	return deck, nil
}

// GetDeck implements DeckService.GetDeck
func (s *deckServiceImpl) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	deck, err := s.decks.GetDeck(ctx, id)
	if err != nil {
		return nil, mapStoreError("get_deck", "failed to retrieve deck", err)
	}
	return deck, nil
}

// ListDecks implements DeckService.ListDecks
func (s *deckServiceImpl) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	decks, err := s.decks.ListDecks(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list decks",
			slog.String("error", err.Error()))
		return nil, NewDeckServiceError("list_decks", "failed to list decks", err)
	}
	return decks, nil
}

// DeleteDeck implements DeckService.DeleteDeck
func (s *deckServiceImpl) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.decks.DeleteDeck(ctx, id); err != nil {
		return mapStoreError("delete_deck", "failed to delete deck", err)
	}

	log.Info("deck deleted", slog.String("deck_id", id.String()))
	return nil
}

// AddCard implements DeckService.AddCard
func (s *deckServiceImpl) AddCard(ctx context.Context, deckID uuid.UUID, input CardInput) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := buildCard(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.decks.AddCard(ctx, deckID, card); err != nil {
		return nil, mapStoreError("add_card", "failed to add card", err)
	}

	log.Debug("card added",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", card.ID.String()))
	return card, nil
}

// RemoveCard implements DeckService.RemoveCard
func (s *deckServiceImpl) RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	if err := s.decks.RemoveCard(ctx, deckID, cardID); err != nil {
		return mapStoreError("remove_card", "failed to remove card", err)
	}
	return nil
}

// GenerateDeck implements DeckService.GenerateDeck
func (s *deckServiceImpl) GenerateDeck(ctx context.Context, req generation.GenerateRequest) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.generator.GenerateDeck(ctx, req)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidRequest) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		log.Error("failed to generate deck", slog.String("error", err.Error()))
		return nil, NewDeckServiceError("generate_deck", "failed to generate deck", err)
	}

	if err := s.decks.CreateDeck(ctx, deck); err != nil {
		return nil, mapStoreError("generate_deck", "failed to save generated deck", err)
	}

	log.Info("generated deck stored",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", deck.Len()))
	return deck, nil
}

// ImportDecks implements DeckService.ImportDecks
func (s *deckServiceImpl) ImportDecks(ctx context.Context, decks []*domain.Deck) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for i, deck := range decks {
		if err := s.decks.CreateDeck(ctx, deck); err != nil {
			log.Error("failed to import deck",
				slog.String("error", err.Error()),
				slog.String("deck_name", deck.Name),
				slog.Int("imported", i))
			return i, mapStoreError("import_decks", fmt.Sprintf("failed to import deck %q", deck.Name), err)
		}
	}

	log.Info("decks imported", slog.Int("count", len(decks)))
	return len(decks), nil
}

func buildCard(input CardInput) (*domain.Card, error) {
	if input.Note == nil {
		return domain.NewCard(input.Prompt, input.Answer)
	}

	answer := input.Answer
	if answer == "" {
		answer = notation.Spell(*input.Note)
	}
	return domain.NewNoteCard(*input.Note, answer)
}

// mapStoreError converts store errors into service sentinels, wrapping
// anything unexpected in a DeckServiceError.
func mapStoreError(operation, message string, err error) error {
	switch {
	case errors.Is(err, store.ErrDeckNotFound):
		return ErrDeckNotFound
	case errors.Is(err, store.ErrCardNotFound):
		return ErrCardNotFound
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return NewDeckServiceError(operation, message, err)
	}
}
