package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Note validation errors
var (
	// ErrInvalidLetter is returned when a note letter is not one of A..G.
	ErrInvalidLetter = errors.New("note letter must be one of A-G")

	// ErrInvalidAccidental is returned when an accidental is not recognised.
	ErrInvalidAccidental = errors.New("invalid accidental")
)

// Letter is a note name without accidental.
type Letter string

// Valid note letters.
const (
	LetterA Letter = "A"
	LetterB Letter = "B"
	LetterC Letter = "C"
	LetterD Letter = "D"
	LetterE Letter = "E"
	LetterF Letter = "F"
	LetterG Letter = "G"
)

// Letters lists the note letters in scale order starting from C.
var Letters = []Letter{LetterC, LetterD, LetterE, LetterF, LetterG, LetterA, LetterB}

// IsValid reports whether l is one of A..G.
func (l Letter) IsValid() bool {
	switch l {
	case LetterA, LetterB, LetterC, LetterD, LetterE, LetterF, LetterG:
		return true
	default:
		return false
	}
}

// ParseLetter converts a string such as "b" into a Letter.
func ParseLetter(s string) (Letter, error) {
	l := Letter(strings.ToUpper(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLetter, s)
	}
	return l, nil
}

// Accidental is the sharp/flat/natural mark of a note.
// AccidentalNone means the note carries no written mark and takes whatever
// the key signature implies.
type Accidental string

// Accidental values.
const (
	AccidentalNone    Accidental = ""
	AccidentalNatural Accidental = "natural"
	AccidentalSharp   Accidental = "sharp"
	AccidentalFlat    Accidental = "flat"
)

// IsValid reports whether a is a known accidental, including AccidentalNone.
func (a Accidental) IsValid() bool {
	switch a {
	case AccidentalNone, AccidentalNatural, AccidentalSharp, AccidentalFlat:
		return true
	default:
		return false
	}
}

// Symbol returns the printed form used in prompts ("#", "b" or "").
func (a Accidental) Symbol() string {
	switch a {
	case AccidentalSharp:
		return "#"
	case AccidentalFlat:
		return "b"
	case AccidentalNatural:
		return "♮"
	default:
		return ""
	}
}

// ParseAccidental accepts the canonical names as well as the symbols #, b and n.
func ParseAccidental(s string) (Accidental, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AccidentalNone, nil
	case "natural", "n", "♮":
		return AccidentalNatural, nil
	case "sharp", "#", "♯":
		return AccidentalSharp, nil
	case "flat", "b", "♭":
		return AccidentalFlat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccidental, s)
	}
}

// Note is a written note together with the key and time signature it
// appears under. Notes are values; nothing mutates them after construction.
type Note struct {
	Letter        Letter     `json:"letter" yaml:"letter"`
	Accidental    Accidental `json:"accidental,omitempty" yaml:"accidental,omitempty"`
	Octave        int        `json:"octave" yaml:"octave"`
	KeySignature  string     `json:"key_signature" yaml:"key_signature"`
	TimeSignature string     `json:"time_signature" yaml:"time_signature"`
}

// NewNote creates a validated Note.
func NewNote(letter Letter, accidental Accidental, octave int, keySignature, timeSignature string) (Note, error) {
	n := Note{
		Letter:        letter,
		Accidental:    accidental,
		Octave:        octave,
		KeySignature:  keySignature,
		TimeSignature: timeSignature,
	}
	if err := n.Validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Validate checks the letter and accidental. Combinations such as B sharp are
// accepted; avoiding them is up to whoever builds the cards.
func (n Note) Validate() error {
	if !n.Letter.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLetter, n.Letter)
	}
	if !n.Accidental.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidAccidental, n.Accidental)
	}
	return nil
}

// String renders the written note, e.g. "Bb4" or "F4".
func (n Note) String() string {
	return fmt.Sprintf("%s%s%d", n.Letter, n.Accidental.Symbol(), n.Octave)
}
