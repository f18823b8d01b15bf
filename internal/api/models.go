package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"github.com/phrazzld/scry-notes/internal/generation"
	"github.com/phrazzld/scry-notes/internal/service"
	"github.com/phrazzld/scry-notes/internal/service/study"
)

// NoteRequest describes a written note. Accidental accepts names (natural,
// sharp, flat) or symbols (n, #, b) and may be omitted.
type NoteRequest struct {
	Letter        string `json:"letter"         validate:"required,len=1"`
	Accidental    string `json:"accidental"     validate:"max=8"`
	Octave        int    `json:"octave"         validate:"min=0,max=8"`
	KeySignature  string `json:"key_signature"  validate:"max=50"`
	TimeSignature string `json:"time_signature" validate:"max=10"`
}

// CardRequest defines the payload for adding a card. Either Note or both
// Prompt and Answer must be given.
type CardRequest struct {
	Prompt string       `json:"prompt" validate:"required_without=Note,max=1000"`
	Answer string       `json:"answer" validate:"required_without=Note,max=200"`
	Note   *NoteRequest `json:"note"   validate:"omitempty"`
}

// CreateDeckRequest defines the payload for creating a deck.
type CreateDeckRequest struct {
	Name        string        `json:"name"        validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Cards       []CardRequest `json:"cards"       validate:"max=1000,dive"`
}

// GenerateDeckRequest defines the payload for generating a note deck.
type GenerateDeckRequest struct {
	Name          string `json:"name"           validate:"max=200"`
	Description   string `json:"description"    validate:"max=2000"`
	KeySignature  string `json:"key_signature"  validate:"max=50"`
	TimeSignature string `json:"time_signature" validate:"max=10"`
	Count         int    `json:"count"          validate:"required,min=1,max=200"`
	MinOctave     int    `json:"min_octave"     validate:"min=0,max=8"`
	MaxOctave     int    `json:"max_octave"     validate:"min=0,max=8"`
}

// AnswerRequest defines the payload for answering a note card.
type AnswerRequest struct {
	Letter     string `json:"letter"     validate:"required,len=1"`
	Accidental string `json:"accidental" validate:"max=8"`
}

// ResultRequest defines the payload for a self-graded result.
type ResultRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}

// NoteResponse represents a note in responses.
type NoteResponse struct {
	Letter        string `json:"letter"`
	Accidental    string `json:"accidental,omitempty"`
	Octave        int    `json:"octave"`
	KeySignature  string `json:"key_signature,omitempty"`
	TimeSignature string `json:"time_signature,omitempty"`
	Display       string `json:"display"`
}

// CardResponse represents a card. Answer is left out when the card is
// being presented for study.
type CardResponse struct {
	ID             uuid.UUID     `json:"id"`
	Prompt         string        `json:"prompt"`
	Answer         string        `json:"answer,omitempty"`
	Note           *NoteResponse `json:"note,omitempty"`
	CorrectCount   int           `json:"correct_count"`
	IncorrectCount int           `json:"incorrect_count"`
	LastReviewedAt *time.Time    `json:"last_reviewed_at,omitempty"`
}

// DeckResponse represents a deck with its cards in queue order.
type DeckResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CardCount   int            `json:"card_count"`
	Cards       []CardResponse `json:"cards"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ReviewResponse reports a judged answer.
type ReviewResponse struct {
	Correct  bool         `json:"correct"`
	Expected string       `json:"expected"`
	OldIndex int          `json:"old_index"`
	NewIndex int          `json:"new_index"`
	Card     CardResponse `json:"card"`
}

func (n *NoteRequest) toDomain() (domain.Note, error) {
	letter, err := domain.ParseLetter(n.Letter)
	if err != nil {
		return domain.Note{}, err
	}
	acc, err := domain.ParseAccidental(n.Accidental)
	if err != nil {
		return domain.Note{}, err
	}
	return domain.NewNote(letter, acc, n.Octave, n.KeySignature, n.TimeSignature)
}

func (c CardRequest) toInput() (service.CardInput, error) {
	input := service.CardInput{Prompt: c.Prompt, Answer: c.Answer}
	if c.Note != nil {
		note, err := c.Note.toDomain()
		if err != nil {
			return service.CardInput{}, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
		}
		input.Note = &note
	}
	return input, nil
}

func (a AnswerRequest) toDomain() (notation.Answer, error) {
	letter, err := domain.ParseLetter(a.Letter)
	if err != nil {
		return notation.Answer{}, fmt.Errorf("%w: %v", study.ErrInvalidAnswer, err)
	}
	acc, err := domain.ParseAccidental(a.Accidental)
	if err != nil {
		return notation.Answer{}, fmt.Errorf("%w: %v", study.ErrInvalidAnswer, err)
	}
	return notation.Answer{Letter: letter, Accidental: acc}, nil
}

func (g GenerateDeckRequest) toDomain() generation.GenerateRequest {
	return generation.GenerateRequest{
		Name:          g.Name,
		Description:   g.Description,
		KeySignature:  g.KeySignature,
		TimeSignature: g.TimeSignature,
		Count:         g.Count,
		MinOctave:     g.MinOctave,
		MaxOctave:     g.MaxOctave,
	}
}

func cardToResponse(c *domain.Card, withAnswer bool) CardResponse {
	resp := CardResponse{
		ID:             c.ID,
		Prompt:         c.Prompt,
		CorrectCount:   c.CorrectCount,
		IncorrectCount: c.IncorrectCount,
		LastReviewedAt: c.LastReviewedAt,
	}
	if withAnswer {
		resp.Answer = c.CanonicalAnswer
	}
	if c.Note != nil {
		resp.Note = &NoteResponse{
			Letter:        string(c.Note.Letter),
			Accidental:    string(c.Note.Accidental),
			Octave:        c.Note.Octave,
			KeySignature:  c.Note.KeySignature,
			TimeSignature: c.Note.TimeSignature,
			Display:       c.Note.String(),
		}
	}
	return resp
}

func deckToResponse(d *domain.Deck) DeckResponse {
	cards := d.Cards()
	resp := DeckResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CardCount:   len(cards),
		Cards:       make([]CardResponse, 0, len(cards)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, cardToResponse(c, true))
	}
	return resp
}

func reviewToResponse(r *study.ReviewResult) ReviewResponse {
	return ReviewResponse{
		Correct:  r.Correct,
		Expected: r.Expected,
		OldIndex: r.OldIndex,
		NewIndex: r.NewIndex,
		Card:     cardToResponse(r.Card, true),
	}
}
