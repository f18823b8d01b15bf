// Package notation judges note identification answers. A note's written
// accidental is only part of its identity: the key signature supplies a
// standing accidental for some letters unless the note carries its own mark.
package notation

import (
	"fmt"
	"strings"

	"github.com/phrazzld/scry-notes/internal/domain"
)

// keyDefaults lists the standing accidentals per key signature. Only F Major
// and G Major carry defaults; any other key, C Major included, has none.
var keyDefaults = map[string]map[domain.Letter]domain.Accidental{
	"f major": {domain.LetterB: domain.AccidentalFlat},
	"g major": {domain.LetterF: domain.AccidentalSharp},
}

// KeyDefault returns the accidental the key signature implies for letter.
func KeyDefault(keySignature string, letter domain.Letter) (domain.Accidental, bool) {
	defaults, ok := keyDefaults[normalizeKey(keySignature)]
	if !ok {
		return domain.AccidentalNone, false
	}
	acc, ok := defaults[letter]
	return acc, ok
}

// KnownKeySignatures returns the key signatures that carry standing accidentals.
func KnownKeySignatures() []string {
	return []string{"F Major", "G Major"}
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.Join(strings.Fields(k), " "))
}

// EffectiveAccidental resolves the accidental a note actually sounds with:
// an explicit natural always wins, an unmarked note takes the key signature's
// default for its letter, and anything else keeps its written mark. The
// result is never AccidentalNone.
func EffectiveAccidental(note domain.Note) domain.Accidental {
	switch note.Accidental {
	case domain.AccidentalNatural:
		return domain.AccidentalNatural
	case domain.AccidentalNone:
		if acc, ok := KeyDefault(note.KeySignature, note.Letter); ok {
			return acc
		}
		return domain.AccidentalNatural
	default:
		return note.Accidental
	}
}

// Answer is a student's reply to a note card.
type Answer struct {
	Letter     domain.Letter     `json:"letter"`
	Accidental domain.Accidental `json:"accidental"`
}

// Validate checks the answer's letter and accidental.
func (a Answer) Validate() error {
	if !a.Letter.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidLetter, a.Letter)
	}
	if !a.Accidental.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccidental, a.Accidental)
	}
	return nil
}

// normalized reads an omitted accidental as natural.
func (a Answer) normalized() Answer {
	if a.Accidental == domain.AccidentalNone {
		a.Accidental = domain.AccidentalNatural
	}
	return a
}

// Check reports whether answer names the card's note. It has no side effects;
// the caller records the result with the scheduler.
// Returns domain.ErrNoteMissing if the card is not a note card.
func Check(card *domain.Card, answer Answer) (bool, error) {
	if card == nil || card.Note == nil {
		return false, domain.ErrNoteMissing
	}

	a := answer.normalized()
	return a.Letter == card.Note.Letter && a.Accidental == EffectiveAccidental(*card.Note), nil
}

// Spell returns the conventional name of a note's effective pitch, e.g. "Bb"
// or "F#". Naturals are written without a mark.
func Spell(note domain.Note) string {
	acc := EffectiveAccidental(note)
	if acc == domain.AccidentalNatural {
		return string(note.Letter)
	}
	return string(note.Letter) + acc.Symbol()
}
