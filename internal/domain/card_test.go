package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	card, err := NewCard("  What is the relative minor of C Major?  ", "A minor")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if card.Prompt != "What is the relative minor of C Major?" {
		t.Errorf("Expected trimmed prompt, got %q", card.Prompt)
	}
	if card.HasNote() {
		t.Error("Expected plain card to have no note")
	}
	if card.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	_, err = NewCard("", "answer")
	if err != ErrCardPromptEmpty {
		t.Errorf("Expected error %v, got %v", ErrCardPromptEmpty, err)
	}

	_, err = NewCard("prompt", "   ")
	if err != ErrCardAnswerEmpty {
		t.Errorf("Expected error %v, got %v", ErrCardAnswerEmpty, err)
	}
}

func TestNewNoteCard(t *testing.T) {
	t.Parallel()

	note := Note{Letter: LetterB, Octave: 4, KeySignature: "F Major", TimeSignature: "4/4"}
	card, err := NewNoteCard(note, "Bb")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !card.HasNote() {
		t.Fatal("Expected note card to carry a note")
	}
	if *card.Note != note {
		t.Errorf("Expected note %+v, got %+v", note, *card.Note)
	}
	if card.Prompt != "Name the note B4 in F Major (4/4)" {
		t.Errorf("Unexpected prompt %q", card.Prompt)
	}

	_, err = NewNoteCard(Note{Letter: "H"}, "H")
	if err == nil {
		t.Error("Expected error for invalid letter")
	}
}

func TestCardRecordResults(t *testing.T) {
	t.Parallel()

	card, err := NewCard("prompt", "answer")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	card.RecordCorrect(now)
	card.RecordIncorrect(now.Add(time.Minute))
	card.RecordIncorrect(now.Add(2 * time.Minute))

	if card.CorrectCount != 1 {
		t.Errorf("Expected correct count 1, got %d", card.CorrectCount)
	}
	if card.IncorrectCount != 2 {
		t.Errorf("Expected incorrect count 2, got %d", card.IncorrectCount)
	}
	if card.LastReviewedAt == nil || !card.LastReviewedAt.Equal(now.Add(2*time.Minute)) {
		t.Errorf("Unexpected LastReviewedAt %v", card.LastReviewedAt)
	}
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := Card{ID: uuid.New(), Prompt: "p", CanonicalAnswer: "a"}

	tests := []struct {
		name    string
		mutate  func(c *Card)
		wantErr error
	}{
		{"valid card", func(c *Card) {}, nil},
		{"nil id", func(c *Card) { c.ID = uuid.Nil }, ErrCardIDEmpty},
		{"negative correct count", func(c *Card) { c.CorrectCount = -1 }, ErrCardCountNegative},
		{"negative incorrect count", func(c *Card) { c.IncorrectCount = -1 }, ErrCardCountNegative},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			if err := c.Validate(); err != tc.wantErr {
				t.Errorf("Expected error %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCardClone(t *testing.T) {
	t.Parallel()

	card, err := NewNoteCard(Note{Letter: LetterF, Octave: 5, KeySignature: "G Major"}, "F#")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	card.RecordCorrect(time.Now())

	cp := card.Clone()
	cp.Note.Octave = 2
	cp.CorrectCount = 10
	*cp.LastReviewedAt = time.Time{}

	if card.Note.Octave != 5 || card.CorrectCount != 1 || card.LastReviewedAt.IsZero() {
		t.Error("Expected clone to be independent of the original")
	}
}
