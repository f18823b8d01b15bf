// Package memory provides an in-process DeckStore used when no database is
// configured, and in tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/phrazzld/scry-notes/internal/store"
)

// DeckStore implements store.DeckStore with a mutex-guarded map. Decks are
// copied on the way in and out, so callers never share state with the store
// and a SaveDeck replaces the stored deck in one step.
type DeckStore struct {
	mu     sync.RWMutex
	decks  map[uuid.UUID]*domain.Deck
	logger *slog.Logger
}

// Ensure DeckStore implements store.DeckStore interface
var _ store.DeckStore = (*DeckStore)(nil)

// NewDeckStore creates an empty DeckStore. If logger is nil, a default logger will be used.
func NewDeckStore(logger *slog.Logger) *DeckStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckStore{
		decks:  make(map[uuid.UUID]*domain.Deck),
		logger: logger.With(slog.String("component", "memory_deck_store")),
	}
}

// CreateDeck implements store.DeckStore.CreateDeck.
func (s *DeckStore) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.decks[deck.ID]; exists {
		return fmt.Errorf("%w: deck %s", store.ErrDuplicate, deck.ID)
	}
	if id, ok := s.findCardLocked(deck.Cards()); ok {
		return fmt.Errorf("%w: card %s", store.ErrDuplicate, id)
	}

	s.decks[deck.ID] = deck.Clone()

	log.Debug("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("card_count", deck.Len()))
	return nil
}

// GetDeck implements store.DeckStore.GetDeck.
func (s *DeckStore) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deck, ok := s.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	return deck.Clone(), nil
}

// ListDecks implements store.DeckStore.ListDecks.
func (s *DeckStore) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	s.mu.RLock()
	decks := make([]*domain.Deck, 0, len(s.decks))
	for _, d := range s.decks {
		decks = append(decks, d)
	}
	s.mu.RUnlock()

	sort.Slice(decks, func(i, j int) bool {
		if decks[i].CreatedAt.Equal(decks[j].CreatedAt) {
			return decks[i].ID.String() < decks[j].ID.String()
		}
		return decks[i].CreatedAt.Before(decks[j].CreatedAt)
	})

	out := make([]domain.DeckSummary, 0, len(decks))
	for _, d := range decks {
		out = append(out, d.Summary())
	}
	return out, nil
}

// DeleteDeck implements store.DeckStore.DeleteDeck.
func (s *DeckStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.decks[id]; !ok {
		return store.ErrDeckNotFound
	}
	delete(s.decks, id)

	log.Debug("deck deleted", slog.String("deck_id", id.String()))
	return nil
}

// AddCard implements store.DeckStore.AddCard.
func (s *DeckStore) AddCard(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks[deckID]
	if !ok {
		return store.ErrDeckNotFound
	}
	if _, dup := s.findCardLocked([]*domain.Card{card}); dup {
		return fmt.Errorf("%w: card %s", store.ErrDuplicate, card.ID)
	}
	if err := deck.AddCard(card.Clone()); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	deck.Touch(time.Now())
	return nil
}

// RemoveCard implements store.DeckStore.RemoveCard.
func (s *DeckStore) RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, ok := s.decks[deckID]
	if !ok {
		return store.ErrDeckNotFound
	}
	if !deck.RemoveCard(cardID) {
		return store.ErrCardNotFound
	}
	deck.Touch(time.Now())
	return nil
}

// SaveDeck implements store.DeckStore.SaveDeck.
func (s *DeckStore) SaveDeck(ctx context.Context, deck *domain.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.decks[deck.ID]
	if !ok {
		return store.ErrDeckNotFound
	}
	if !sameCards(current, deck) {
		return fmt.Errorf("%w: card set of deck %s differs", store.ErrConflict, deck.ID)
	}

	saved := deck.Clone()
	saved.Touch(time.Now())
	s.decks[deck.ID] = saved
	return nil
}

// findCardLocked reports the first card id already used by any stored deck.
func (s *DeckStore) findCardLocked(cards []*domain.Card) (uuid.UUID, bool) {
	for _, c := range cards {
		for _, d := range s.decks {
			if _, used := d.IndexOf(c.ID); used {
				return c.ID, true
			}
		}
	}
	return uuid.Nil, false
}

func sameCards(a, b *domain.Deck) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, c := range b.Cards() {
		if _, ok := a.IndexOf(c.ID); !ok {
			return false
		}
	}
	return true
}
