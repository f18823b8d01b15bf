// Package study runs study sessions: it draws the next card of a deck, judges
// answers and persists the resulting queue order.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
)

// StudyService provides the per-turn operations of a study session.
//
// Every deck has at most one session. Calls for the same deck are
// serialized; calls for different decks run concurrently.
type StudyService interface {
	// StartSession creates a fresh session for the deck, replacing any
	// existing one.
	//
	// Returns:
	//   - (nil, ErrDeckNotFound): If the deck does not exist
	StartSession(ctx context.Context, deckID uuid.UUID) (*SessionInfo, error)

	// EndSession discards the deck's session.
	//
	// Returns ErrSessionNotFound if the deck has no session.
	EndSession(ctx context.Context, deckID uuid.UUID) error

	// Session returns a snapshot of the deck's session.
	//
	// Returns ErrSessionNotFound if the deck has no session.
	Session(ctx context.Context, deckID uuid.UUID) (*SessionInfo, error)

	// NextCard draws the next card to present. A session is started on
	// first use.
	//
	// Returns:
	//   - (nil, ErrDeckNotFound): If the deck does not exist
	//   - (nil, ErrEmptyDeck): If the deck has no cards
	NextCard(ctx context.Context, deckID uuid.UUID) (*domain.Card, error)

	// SubmitAnswer judges a note answer, repositions the card and saves the
	// deck.
	//
	// Returns:
	//   - (nil, ErrDeckNotFound): If the deck does not exist
	//   - (nil, ErrCardNotFound): If the card is not in the deck
	//   - (nil, ErrNotNoteCard): If the card carries no note
	//   - (nil, ErrInvalidAnswer): If the answer letter or accidental is unknown
	SubmitAnswer(ctx context.Context, deckID, cardID uuid.UUID, answer notation.Answer) (*ReviewResult, error)

	// RecordResult applies a self-graded result for any card, repositions
	// it and saves the deck.
	//
	// Returns:
	//   - (nil, ErrDeckNotFound): If the deck does not exist
	//   - (nil, ErrCardNotFound): If the card is not in the deck
	RecordResult(ctx context.Context, deckID, cardID uuid.UUID, correct bool) (*ReviewResult, error)
}

// SessionInfo is a read-only view of a deck's session.
type SessionInfo struct {
	DeckID        uuid.UUID   `json:"deck_id"`
	Capacity      int         `json:"capacity"`
	RecentlyShown []uuid.UUID `json:"recently_shown"`
	LastShownID   *uuid.UUID  `json:"last_shown_id,omitempty"`
}

// ReviewResult describes the outcome of a judged answer.
type ReviewResult struct {
	Correct bool `json:"correct"`

	// Expected is the card's canonical answer.
	Expected string `json:"expected"`

	OldIndex int          `json:"old_index"`
	NewIndex int          `json:"new_index"`
	Card     *domain.Card `json:"card"`
}

// Common error types for StudyService
var (
	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrCardNotFound indicates that the card is not part of the deck.
	ErrCardNotFound = errors.New("card not found")

	// ErrEmptyDeck indicates that the deck has no cards to schedule.
	ErrEmptyDeck = errors.New("deck has no cards")

	// ErrNotNoteCard indicates that a note answer was given for a card
	// without a note.
	ErrNotNoteCard = errors.New("card has no note to evaluate")

	// ErrInvalidAnswer indicates an answer with an unknown letter or accidental.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrSessionNotFound indicates that the deck has no active session.
	ErrSessionNotFound = errors.New("no active session for deck")
)

// ServiceError wraps errors from the study service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "next_card", "submit_answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewNextCardError returns a new ServiceError for the next_card operation.
func NewNextCardError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "next_card", Message: message, Err: err}
}

// NewSubmitAnswerError returns a new ServiceError for the submit_answer operation.
func NewSubmitAnswerError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_answer", Message: message, Err: err}
}

// NewRecordResultError returns a new ServiceError for the record_result operation.
func NewRecordResultError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "record_result", Message: message, Err: err}
}
