// Package schedule decides which card of a deck is shown next and where a
// card goes in the deck's queue once its answer has been judged.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
)

// Common errors
var (
	ErrNilDeck    = errors.New("deck cannot be nil")
	ErrNilSession = errors.New("session cannot be nil")
)

// Scheduler defines the card selection and requeue operations.
type Scheduler interface {
	// Next picks the card to present and records it in the session.
	// Returns domain.ErrEmptyDeck if the deck has no cards.
	Next(deck *domain.Deck, session *Session) (*domain.Card, error)

	// OnResult applies a judged answer: counters are updated and a missed
	// card is moved a short random distance ahead in the queue.
	// Returns domain.ErrCardNotFound if cardID is not in the deck.
	OnResult(deck *domain.Deck, session *Session, cardID uuid.UUID, correct bool, now time.Time) (Placement, error)
}

// Placement describes where a judged card sits after OnResult.
type Placement struct {
	CardID   uuid.UUID `json:"card_id"`
	OldIndex int       `json:"old_index"`
	NewIndex int       `json:"new_index"`
}

// Moved reports whether the card changed position.
func (p Placement) Moved() bool {
	return p.OldIndex != p.NewIndex
}

type defaultScheduler struct {
	params *Params
	rng    RandomSource
}

// NewScheduler creates a scheduler with the given parameters and random source.
// Nil or invalid parameters are replaced by the defaults.
func NewScheduler(params *Params, rng RandomSource) Scheduler {
	if params == nil || params.Validate() != nil {
		params = NewDefaultParams()
	}
	if rng == nil {
		rng = NewRandomSource(0)
	}
	return &defaultScheduler{params: params, rng: rng}
}

// NewDefaultScheduler creates a scheduler with default parameters and a clock-seeded source.
func NewDefaultScheduler() Scheduler {
	return NewScheduler(NewDefaultParams(), NewRandomSource(0))
}

func (s *defaultScheduler) Next(deck *domain.Deck, session *Session) (*domain.Card, error) {
	if deck == nil {
		return nil, ErrNilDeck
	}
	if session == nil {
		return nil, ErrNilSession
	}
	if deck.Len() == 0 {
		return nil, domain.ErrEmptyDeck
	}

	cards := deck.Cards()
	candidates := make([]*domain.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID == session.LastShownID || session.isRecent(c.ID) {
			continue
		}
		candidates = append(candidates, c)
	}

	// History exhausted the deck: only avoid an immediate repeat.
	if len(candidates) == 0 {
		for _, c := range cards {
			if c.ID != session.LastShownID {
				candidates = append(candidates, c)
			}
		}
	}

	// Single-card deck.
	if len(candidates) == 0 {
		candidates = cards
	}

	picked := candidates[s.rng.IntN(len(candidates))]

	if session.HasShown() {
		session.push(session.LastShownID)
	}
	session.LastShownID = picked.ID

	return picked, nil
}

func (s *defaultScheduler) OnResult(
	deck *domain.Deck,
	session *Session,
	cardID uuid.UUID,
	correct bool,
	now time.Time,
) (Placement, error) {
	if deck == nil {
		return Placement{}, ErrNilDeck
	}

	idx, ok := deck.IndexOf(cardID)
	if !ok {
		return Placement{}, fmt.Errorf("%w: %s", domain.ErrCardNotFound, cardID)
	}
	card, err := deck.At(idx)
	if err != nil {
		return Placement{}, err
	}

	placement := Placement{CardID: cardID, OldIndex: idx, NewIndex: idx}

	if correct {
		card.RecordCorrect(now)
		return placement, nil
	}

	target := s.requeueIndex(idx, deck.Len())
	if err := deck.Move(idx, target); err != nil {
		return Placement{}, err
	}
	card.RecordIncorrect(now)
	placement.NewIndex = target

	if session != nil {
		session.Forget(cardID)
	}

	return placement, nil
}

// requeueIndex picks a position MinRequeueOffset..MaxRequeueOffset ahead of
// idx, clamped to the last position of a deck of length n.
func (s *defaultScheduler) requeueIndex(idx, n int) int {
	span := s.params.MaxRequeueOffset - s.params.MinRequeueOffset + 1
	target := idx + s.params.MinRequeueOffset + s.rng.IntN(span)
	if target > n-1 {
		target = n - 1
	}
	return target
}
