package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeCardReviewed = "card.reviewed"
)

// ReviewEvent records one judged answer and where the card ended up in the
// deck's queue.
type ReviewEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is always TypeCardReviewed
	Type string `json:"type"`

	DeckID  uuid.UUID `json:"deck_id"`
	CardID  uuid.UUID `json:"card_id"`
	Correct bool      `json:"correct"`

	// OldIndex and NewIndex are the card's queue positions before and after
	// the result was applied. They are equal for a correct answer.
	OldIndex int `json:"old_index"`
	NewIndex int `json:"new_index"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewReviewEvent creates a ReviewEvent with a fresh ID.
func NewReviewEvent(deckID, cardID uuid.UUID, correct bool, oldIndex, newIndex int, at time.Time) *ReviewEvent {
	return &ReviewEvent{
		ID:         uuid.New(),
		Type:       TypeCardReviewed,
		DeckID:     deckID,
		CardID:     cardID,
		Correct:    correct,
		OldIndex:   oldIndex,
		NewIndex:   newIndex,
		OccurredAt: at.UTC(),
	}
}

// Requeued reports whether the card was moved back in the queue.
func (e *ReviewEvent) Requeued() bool {
	return e.NewIndex != e.OldIndex
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *ReviewEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *ReviewEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *ReviewEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *ReviewEvent) error
}
