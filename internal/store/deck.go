package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
)

// DeckStore defines the interface for deck and card persistence.
//
// A deck's card order is part of its state: implementations must return
// cards in the order last saved and must apply SaveDeck atomically, so a
// reader never sees a partially applied reorder.
type DeckStore interface {
	// CreateDeck saves a new deck together with any cards it already holds.
	// Returns ErrDuplicate if a deck with the same ID exists.
	CreateDeck(ctx context.Context, deck *domain.Deck) error

	// GetDeck retrieves a deck and its ordered cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	// The returned deck is owned by the caller; changes are not visible to
	// the store until SaveDeck is called.
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListDecks returns summaries of all decks ordered by creation time.
	ListDecks(ctx context.Context) ([]domain.DeckSummary, error)

	// DeleteDeck removes a deck and its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	DeleteDeck(ctx context.Context, id uuid.UUID) error

	// AddCard appends a card to the end of a deck's queue.
	// Returns ErrDeckNotFound if the deck does not exist and ErrDuplicate
	// if the card ID is already used.
	AddCard(ctx context.Context, deckID uuid.UUID, card *domain.Card) error

	// RemoveCard removes a card from a deck.
	// Returns ErrDeckNotFound if the deck does not exist and ErrCardNotFound
	// if the card is not in the deck.
	RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error

	// SaveDeck persists the card order and review counters of an existing
	// deck in one atomic step. The set of card ids must match the stored
	// deck; cards are never added or removed by SaveDeck.
	// Returns ErrDeckNotFound if the deck does not exist.
	SaveDeck(ctx context.Context, deck *domain.Deck) error
}
