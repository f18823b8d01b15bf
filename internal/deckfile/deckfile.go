// Package deckfile reads and writes decks as YAML documents, used by the
// import and generate commands.
//
// A file holds a list of decks. Cards are either plain question/answer pairs
// or notes; a note card may omit its prompt and answer, which are then
// derived from the note. Ids and review counters are optional on import and
// always written on export, so an exported file round-trips.
package deckfile

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFile is returned when a deck file cannot be decoded into valid decks.
var ErrInvalidFile = errors.New("invalid deck file")

type fileDoc struct {
	Decks []deckDoc `yaml:"decks"`
}

type deckDoc struct {
	ID          string    `yaml:"id,omitempty"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Cards       []cardDoc `yaml:"cards"`
}

type cardDoc struct {
	ID             string     `yaml:"id,omitempty"`
	Prompt         string     `yaml:"prompt,omitempty"`
	Answer         string     `yaml:"answer,omitempty"`
	Note           *noteDoc   `yaml:"note,omitempty"`
	CorrectCount   int        `yaml:"correct_count,omitempty"`
	IncorrectCount int        `yaml:"incorrect_count,omitempty"`
	LastReviewedAt *time.Time `yaml:"last_reviewed_at,omitempty"`
}

type noteDoc struct {
	Letter        string `yaml:"letter"`
	Accidental    string `yaml:"accidental,omitempty"`
	Octave        int    `yaml:"octave"`
	KeySignature  string `yaml:"key_signature,omitempty"`
	TimeSignature string `yaml:"time_signature,omitempty"`
}

// Decode reads every deck in a YAML deck file. Unknown fields are rejected.
func Decode(r io.Reader) ([]*domain.Deck, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidFile)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	decks := make([]*domain.Deck, 0, len(doc.Decks))
	for i, d := range doc.Decks {
		deck, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: deck %d (%q): %v", ErrInvalidFile, i, d.Name, err)
		}
		decks = append(decks, deck)
	}
	return decks, nil
}

// Encode writes decks as a YAML deck file.
func Encode(w io.Writer, decks []*domain.Deck) error {
	doc := fileDoc{Decks: make([]deckDoc, 0, len(decks))}
	for _, d := range decks {
		doc.Decks = append(doc.Decks, fromDomain(d))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode decks: %w", err)
	}
	return enc.Close()
}

func (d deckDoc) toDomain() (*domain.Deck, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}

	cards := make([]*domain.Card, 0, len(d.Cards))
	for i, c := range d.Cards {
		card, err := c.toDomain()
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		cards = append(cards, card)
	}

	now := time.Now().UTC()
	return domain.RestoreDeck(id, strings.TrimSpace(d.Name), strings.TrimSpace(d.Description), now, now, cards)
}

func (c cardDoc) toDomain() (*domain.Card, error) {
	var (
		card *domain.Card
		err  error
	)
	if c.Note != nil {
		note, nerr := c.Note.toDomain()
		if nerr != nil {
			return nil, nerr
		}
		answer := strings.TrimSpace(c.Answer)
		if answer == "" {
			answer = notation.Spell(note)
		}
		card, err = domain.NewNoteCard(note, answer)
		if err == nil && strings.TrimSpace(c.Prompt) != "" {
			card.Prompt = strings.TrimSpace(c.Prompt)
		}
	} else {
		card, err = domain.NewCard(c.Prompt, c.Answer)
	}
	if err != nil {
		return nil, err
	}

	if c.ID != "" {
		if card.ID, err = uuid.Parse(c.ID); err != nil {
			return nil, fmt.Errorf("invalid card id %q: %w", c.ID, err)
		}
	}
	card.CorrectCount = c.CorrectCount
	card.IncorrectCount = c.IncorrectCount
	if c.LastReviewedAt != nil {
		t := c.LastReviewedAt.UTC()
		card.LastReviewedAt = &t
	}
	return card, card.Validate()
}

func (n noteDoc) toDomain() (domain.Note, error) {
	letter, err := domain.ParseLetter(n.Letter)
	if err != nil {
		return domain.Note{}, err
	}
	acc, err := domain.ParseAccidental(n.Accidental)
	if err != nil {
		return domain.Note{}, err
	}
	return domain.NewNote(letter, acc, n.Octave, strings.TrimSpace(n.KeySignature), strings.TrimSpace(n.TimeSignature))
}

func fromDomain(d *domain.Deck) deckDoc {
	doc := deckDoc{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		Cards:       make([]cardDoc, 0, d.Len()),
	}
	for _, c := range d.Cards() {
		cd := cardDoc{
			ID:             c.ID.String(),
			Prompt:         c.Prompt,
			Answer:         c.CanonicalAnswer,
			CorrectCount:   c.CorrectCount,
			IncorrectCount: c.IncorrectCount,
			LastReviewedAt: c.LastReviewedAt,
		}
		if c.Note != nil {
			cd.Note = &noteDoc{
				Letter:        string(c.Note.Letter),
				Accidental:    string(c.Note.Accidental),
				Octave:        c.Note.Octave,
				KeySignature:  c.Note.KeySignature,
				TimeSignature: c.Note.TimeSignature,
			}
		}
		doc.Cards = append(doc.Cards, cd)
	}
	return doc
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid deck id %q: %w", s, err)
	}
	return id, nil
}
