package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardPromptEmpty is returned when a card's prompt is empty.
	ErrCardPromptEmpty = errors.New("card prompt cannot be empty")

	// ErrCardAnswerEmpty is returned when a card's canonical answer is empty.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")

	// ErrCardCountNegative is returned when a review counter is below zero.
	ErrCardCountNegative = errors.New("card review counts cannot be negative")
)

// Card is a single question/answer pair inside a deck. Note is set only for
// note identification cards. The review counters and LastReviewedAt are
// changed by the scheduler when an answer is judged.
type Card struct {
	ID              uuid.UUID  `json:"id"`
	Prompt          string     `json:"prompt"`
	CanonicalAnswer string     `json:"canonical_answer"`
	Note            *Note      `json:"note,omitempty"`
	CorrectCount    int        `json:"correct_count"`
	IncorrectCount  int        `json:"incorrect_count"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewCard creates a plain question/answer card with a fresh ID.
func NewCard(prompt, answer string) (*Card, error) {
	card := &Card{
		ID:              uuid.New(),
		Prompt:          strings.TrimSpace(prompt),
		CanonicalAnswer: strings.TrimSpace(answer),
		CreatedAt:       time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// NewNoteCard creates a note identification card. The prompt is derived from
// the note; answer is the name the student is expected to give.
func NewNoteCard(note Note, answer string) (*Card, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}

	card := &Card{
		ID:              uuid.New(),
		Prompt:          notePrompt(note),
		CanonicalAnswer: answer,
		Note:            &note,
		CreatedAt:       time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

func notePrompt(n Note) string {
	var b strings.Builder
	b.WriteString("Name the note ")
	b.WriteString(n.String())
	if n.KeySignature != "" {
		b.WriteString(" in ")
		b.WriteString(n.KeySignature)
	}
	if n.TimeSignature != "" {
		b.WriteString(" (")
		b.WriteString(n.TimeSignature)
		b.WriteString(")")
	}
	return b.String()
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.Prompt == "" {
		return ErrCardPromptEmpty
	}

	if c.CanonicalAnswer == "" {
		return ErrCardAnswerEmpty
	}

	if c.CorrectCount < 0 || c.IncorrectCount < 0 {
		return ErrCardCountNegative
	}

	if c.Note != nil {
		if err := c.Note.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// HasNote reports whether the card is a note identification card.
func (c *Card) HasNote() bool {
	return c.Note != nil
}

// RecordCorrect increments the correct counter and stamps the review time.
func (c *Card) RecordCorrect(now time.Time) {
	c.CorrectCount++
	c.markReviewed(now)
}

// RecordIncorrect increments the incorrect counter and stamps the review time.
func (c *Card) RecordIncorrect(now time.Time) {
	c.IncorrectCount++
	c.markReviewed(now)
}

func (c *Card) markReviewed(now time.Time) {
	t := now.UTC()
	c.LastReviewedAt = &t
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	cp := *c
	if c.Note != nil {
		n := *c.Note
		cp.Note = &n
	}
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		cp.LastReviewedAt = &t
	}
	return &cp
}
