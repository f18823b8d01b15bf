package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck has no name.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")
)

// Deck is a named, ordered sequence of cards. The order is the study queue:
// the scheduler reorders it after a miss. An index map keeps id lookups O(1)
// and guarantees that every card id appears at most once.
type Deck struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	cards []*Card
	index map[uuid.UUID]int
}

// DeckSummary is the list view of a deck.
type DeckSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CardCount   int       `json:"card_count"`
}

// NewDeck creates an empty deck with a fresh ID.
func NewDeck(name, description string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
		index:       make(map[uuid.UUID]int),
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// RestoreDeck rebuilds a deck from stored fields and an ordered card list.
// It is used by stores; duplicate card ids are rejected.
func RestoreDeck(id uuid.UUID, name, description string, createdAt, updatedAt time.Time, cards []*Card) (*Deck, error) {
	deck := &Deck{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		index:       make(map[uuid.UUID]int, len(cards)),
	}

	for _, c := range cards {
		if err := deck.AddCard(c); err != nil {
			return nil, err
		}
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}
	if d.Name == "" {
		return ErrDeckNameEmpty
	}
	return nil
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards returns the cards in queue order. The slice is a copy; the cards are not.
func (d *Deck) Cards() []*Card {
	out := make([]*Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// At returns the card at position i.
func (d *Deck) At(i int) (*Card, error) {
	if i < 0 || i >= len(d.cards) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return d.cards[i], nil
}

// IndexOf returns the position of the card with the given id.
func (d *Deck) IndexOf(id uuid.UUID) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

// Card returns the card with the given id, or ErrCardNotFound.
func (d *Deck) Card(id uuid.UUID) (*Card, error) {
	i, ok := d.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return d.cards[i], nil
}

// AddCard appends a card to the end of the queue.
func (d *Deck) AddCard(c *Card) error {
	if c == nil {
		return fmt.Errorf("%w: nil card", ErrValidation)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if d.index == nil {
		d.index = make(map[uuid.UUID]int)
	}
	if _, exists := d.index[c.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, c.ID)
	}
	d.index[c.ID] = len(d.cards)
	d.cards = append(d.cards, c)
	return nil
}

// RemoveCard removes the card with the given id and reports whether it was present.
func (d *Deck) RemoveCard(id uuid.UUID) bool {
	i, ok := d.index[id]
	if !ok {
		return false
	}
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	delete(d.index, id)
	d.reindex(i, len(d.cards)-1)
	return true
}

// Move relocates the card at position from so that it ends up at position to,
// shifting the cards in between. The deck length never changes.
func (d *Deck) Move(from, to int) error {
	n := len(d.cards)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	if from == to {
		return nil
	}

	c := d.cards[from]
	if from < to {
		copy(d.cards[from:to], d.cards[from+1:to+1])
	} else {
		copy(d.cards[to+1:from+1], d.cards[to:from])
	}
	d.cards[to] = c

	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	d.reindex(lo, hi)
	return nil
}

func (d *Deck) reindex(lo, hi int) {
	for i := lo; i <= hi && i < len(d.cards); i++ {
		d.index[d.cards[i].ID] = i
	}
}

// Touch sets UpdatedAt.
func (d *Deck) Touch(now time.Time) {
	d.UpdatedAt = now.UTC()
}

// Summary returns the list view of the deck.
func (d *Deck) Summary() DeckSummary {
	return DeckSummary{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CardCount:   len(d.cards),
	}
}

// Clone returns a deep copy of the deck and its cards.
func (d *Deck) Clone() *Deck {
	cp := &Deck{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		cards:       make([]*Card, len(d.cards)),
		index:       make(map[uuid.UUID]int, len(d.cards)),
	}
	for i, c := range d.cards {
		cp.cards[i] = c.Clone()
		cp.index[c.ID] = i
	}
	return cp
}
