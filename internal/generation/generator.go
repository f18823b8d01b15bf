package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
)

// Limits for generation requests.
const (
	MaxCards  = 200
	MinOctave = 0
	MaxOctave = 8

	DefaultKeySignature  = "C Major"
	DefaultTimeSignature = "4/4"
)

// Generator defines the interface for building note decks.
type Generator interface {
	// GenerateDeck creates a deck of note cards according to req.
	// Returns ErrInvalidRequest if the request is out of range.
	GenerateDeck(ctx context.Context, req GenerateRequest) (*domain.Deck, error)
}

// GenerateRequest describes the deck to build. Empty signatures fall back to
// C Major and 4/4; a zero octave range means octave 4 only.
type GenerateRequest struct {
	Name          string
	Description   string
	KeySignature  string
	TimeSignature string
	Count         int
	MinOctave     int
	MaxOctave     int
}

// NoteGenerator implements Generator.
type NoteGenerator struct {
	rng    schedule.RandomSource
	logger *slog.Logger
}

var _ Generator = (*NoteGenerator)(nil)

// NewNoteGenerator creates a NoteGenerator. If logger is nil, a default logger will be used.
func NewNoteGenerator(rng schedule.RandomSource, logger *slog.Logger) *NoteGenerator {
	if rng == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("rng cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteGenerator{
		rng:    rng,
		logger: logger.With(slog.String("component", "note_generator")),
	}
}

func (r *GenerateRequest) normalize() error {
	r.KeySignature = strings.TrimSpace(r.KeySignature)
	if r.KeySignature == "" {
		r.KeySignature = DefaultKeySignature
	}
	r.TimeSignature = strings.TrimSpace(r.TimeSignature)
	if r.TimeSignature == "" {
		r.TimeSignature = DefaultTimeSignature
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = fmt.Sprintf("%s notes", r.KeySignature)
	}
	if r.MinOctave == 0 && r.MaxOctave == 0 {
		r.MinOctave, r.MaxOctave = 4, 4
	}

	if r.Count < 1 || r.Count > MaxCards {
		return fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, MaxCards)
	}
	if r.MinOctave < MinOctave || r.MaxOctave > MaxOctave || r.MinOctave > r.MaxOctave {
		return fmt.Errorf("%w: octave range %d..%d", ErrInvalidRequest, r.MinOctave, r.MaxOctave)
	}
	return nil
}

// GenerateDeck implements Generator.GenerateDeck.
func (g *NoteGenerator) GenerateDeck(ctx context.Context, req GenerateRequest) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if err := req.normalize(); err != nil {
		log.Warn("rejected generation request", slog.String("error", err.Error()))
		return nil, err
	}

	deck, err := domain.NewDeck(req.Name, req.Description)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		note := g.randomNote(req)
		card, err := domain.NewNoteCard(note, notation.Spell(note))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		if err := deck.AddCard(card); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	log.Info("generated note deck",
		slog.String("deck_id", deck.ID.String()),
		slog.String("key_signature", req.KeySignature),
		slog.Int("count", deck.Len()))
	return deck, nil
}

func (g *NoteGenerator) randomNote(req GenerateRequest) domain.Note {
	letter := domain.Letters[g.rng.IntN(len(domain.Letters))]
	octave := req.MinOctave + g.rng.IntN(req.MaxOctave-req.MinOctave+1)

	return domain.Note{
		Letter:        letter,
		Accidental:    g.randomAccidental(letter, req.KeySignature),
		Octave:        octave,
		KeySignature:  req.KeySignature,
		TimeSignature: req.TimeSignature,
	}
}

// randomAccidental mostly leaves notes unmarked. Letters the key alters get
// an explicit natural now and then; other letters get a sharp or flat, but
// never one that would spell B#, Cb, E# or Fb.
func (g *NoteGenerator) randomAccidental(letter domain.Letter, key string) domain.Accidental {
	if _, altered := notation.KeyDefault(key, letter); altered {
		if g.rng.IntN(4) == 0 {
			return domain.AccidentalNatural
		}
		return domain.AccidentalNone
	}

	switch g.rng.IntN(6) {
	case 0:
		if Spellable(letter, domain.AccidentalSharp) {
			return domain.AccidentalSharp
		}
	case 1:
		if Spellable(letter, domain.AccidentalFlat) {
			return domain.AccidentalFlat
		}
	}
	return domain.AccidentalNone
}

// Spellable reports whether letter+accidental is a name used in standard
// notation. B#, Cb, E# and Fb are not.
func Spellable(letter domain.Letter, acc domain.Accidental) bool {
	switch {
	case acc == domain.AccidentalSharp && (letter == domain.LetterB || letter == domain.LetterE):
		return false
	case acc == domain.AccidentalFlat && (letter == domain.LetterC || letter == domain.LetterF):
		return false
	default:
		return true
	}
}

// Grand staff deck contents.
const (
	GrandStaffDeckName        = "Grand Staff Notes"
	GrandStaffDeckDescription = "Learn to identify notes on the grand staff"
	grandStaffMinOctave       = 3
	grandStaffMaxOctave       = 5
)

var (
	grandStaffKeys  = []string{"C Major", "G Major", "F Major"}
	grandStaffTimes = []string{"4/4", "3/4", "6/8"}
)

// GrandStaffDeck builds the starter deck: every spellable letter and
// accidental (unmarked, sharp, flat) in octaves 3 to 5, each with a random
// key and time signature. Unmarked notes take their pitch from the key.
func (g *NoteGenerator) GrandStaffDeck(ctx context.Context) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	deck, err := domain.NewDeck(GrandStaffDeckName, GrandStaffDeckDescription)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	accidentals := []domain.Accidental{domain.AccidentalNone, domain.AccidentalSharp, domain.AccidentalFlat}
	for octave := grandStaffMinOctave; octave <= grandStaffMaxOctave; octave++ {
		for _, letter := range domain.Letters {
			for _, acc := range accidentals {
				if !Spellable(letter, acc) {
					continue
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				note, err := domain.NewNote(letter, acc, octave,
					grandStaffKeys[g.rng.IntN(len(grandStaffKeys))],
					grandStaffTimes[g.rng.IntN(len(grandStaffTimes))])
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
				}
				card, err := domain.NewNoteCard(note, notation.Spell(note))
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
				}
				if err := deck.AddCard(card); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
				}
			}
		}
	}

	log.Info("generated grand staff deck",
		slog.String("deck_id", deck.ID.String()),
		slog.Int("count", deck.Len()))
	return deck, nil
}
