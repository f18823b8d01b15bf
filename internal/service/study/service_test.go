package study_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/notation"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/events"
	"github.com/phrazzld/scry-notes/internal/platform/memory"
	"github.com/phrazzld/scry-notes/internal/service/study"
	"github.com/phrazzld/scry-notes/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// constRand always returns the same value, clamped to the valid range.
type constRand int

func (c constRand) IntN(n int) int {
	if int(c) >= n {
		return n - 1
	}
	return int(c)
}

// MockDeckStore is a mock implementation of the store.DeckStore interface
type MockDeckStore struct {
	mock.Mock
}

func (m *MockDeckStore) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	return m.Called(ctx, deck).Error(0)
}

func (m *MockDeckStore) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deck), args.Error(1)
}

func (m *MockDeckStore) ListDecks(ctx context.Context) ([]domain.DeckSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeckSummary), args.Error(1)
}

func (m *MockDeckStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDeckStore) AddCard(ctx context.Context, deckID uuid.UUID, card *domain.Card) error {
	return m.Called(ctx, deckID, card).Error(0)
}

func (m *MockDeckStore) RemoveCard(ctx context.Context, deckID, cardID uuid.UUID) error {
	return m.Called(ctx, deckID, cardID).Error(0)
}

func (m *MockDeckStore) SaveDeck(ctx context.Context, deck *domain.Deck) error {
	return m.Called(ctx, deck).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// plainDeck stores a deck of n question/answer cards.
func plainDeck(t *testing.T, s store.DeckStore, n int) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck("plain", "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		card, err := domain.NewCard(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		require.NoError(t, deck.AddCard(card))
	}
	require.NoError(t, s.CreateDeck(context.Background(), deck))
	return deck
}

// noteDeck stores a deck holding an unmarked B in F Major followed by n
// plain cards.
func noteDeck(t *testing.T, s store.DeckStore, n int) (*domain.Deck, *domain.Card) {
	t.Helper()
	deck, err := domain.NewDeck("notes", "")
	require.NoError(t, err)

	note, err := domain.NewNote(domain.LetterB, domain.AccidentalNone, 4, "F Major", "4/4")
	require.NoError(t, err)
	noteCard, err := domain.NewNoteCard(note, "Bb")
	require.NoError(t, err)
	require.NoError(t, deck.AddCard(noteCard))

	for i := 0; i < n; i++ {
		card, err := domain.NewCard(fmt.Sprintf("q%d", i), "a")
		require.NoError(t, err)
		require.NoError(t, deck.AddCard(card))
	}
	require.NoError(t, s.CreateDeck(context.Background(), deck))
	return deck, noteCard
}

func newService(s store.DeckStore, rng schedule.RandomSource, emitter events.EventEmitter) study.StudyService {
	return study.NewStudyService(s, schedule.NewScheduler(schedule.NewDefaultParams(), rng), emitter, 10, discardLogger())
}

func TestNextCard(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown deck", func(t *testing.T) {
		svc := newService(memory.NewDeckStore(discardLogger()), nil, nil)
		_, err := svc.NextCard(ctx, uuid.New())
		assert.ErrorIs(t, err, study.ErrDeckNotFound)
	})

	t.Run("empty deck", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck := plainDeck(t, s, 0)
		svc := newService(s, nil, nil)

		card, err := svc.NextCard(ctx, deck.ID)
		assert.Nil(t, card)
		assert.ErrorIs(t, err, study.ErrEmptyDeck)
	})

	t.Run("never repeats back to back", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck := plainDeck(t, s, 4)
		svc := newService(s, schedule.NewRandomSource(42), nil)

		var last uuid.UUID
		for i := 0; i < 100; i++ {
			card, err := svc.NextCard(ctx, deck.ID)
			require.NoError(t, err)
			assert.NotEqual(t, last, card.ID, "draw %d repeated the previous card", i)
			last = card.ID
		}
	})

	t.Run("starts a session on first use", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck := plainDeck(t, s, 3)
		svc := newService(s, nil, nil)

		_, err := svc.Session(ctx, deck.ID)
		assert.ErrorIs(t, err, study.ErrSessionNotFound)

		card, err := svc.NextCard(ctx, deck.ID)
		require.NoError(t, err)

		info, err := svc.Session(ctx, deck.ID)
		require.NoError(t, err)
		require.NotNil(t, info.LastShownID)
		assert.Equal(t, card.ID, *info.LastShownID)
		assert.Empty(t, info.RecentlyShown)
		assert.Equal(t, 10, info.Capacity)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		s := &MockDeckStore{}
		boom := errors.New("connection reset")
		s.On("GetDeck", mock.Anything, mock.Anything).Return(nil, boom)
		svc := newService(s, nil, nil)

		_, err := svc.NextCard(ctx, uuid.New())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, study.ErrDeckNotFound)
		s.AssertExpectations(t)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDeckStore(discardLogger())
	deck := plainDeck(t, s, 5)
	svc := newService(s, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.NextCard(ctx, deck.ID)
		require.NoError(t, err)
	}
	info, err := svc.Session(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, info.RecentlyShown, 2)

	info, err = svc.StartSession(ctx, deck.ID)
	require.NoError(t, err)
	assert.Empty(t, info.RecentlyShown)
	assert.Nil(t, info.LastShownID)

	require.NoError(t, svc.EndSession(ctx, deck.ID))
	assert.ErrorIs(t, svc.EndSession(ctx, deck.ID), study.ErrSessionNotFound)

	_, err = svc.StartSession(ctx, uuid.New())
	assert.ErrorIs(t, err, study.ErrDeckNotFound)
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("key signature flat is correct", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, s, 11)
		svc := newService(s, constRand(0), nil)

		result, err := svc.SubmitAnswer(ctx, deck.ID, card.ID,
			notation.Answer{Letter: domain.LetterB, Accidental: domain.AccidentalFlat})
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.Equal(t, "Bb", result.Expected)
		assert.Equal(t, 0, result.OldIndex)
		assert.Equal(t, 0, result.NewIndex)

		stored, err := s.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		got, err := stored.Card(card.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CorrectCount)
		assert.NotNil(t, got.LastReviewedAt)
		idx, _ := stored.IndexOf(card.ID)
		assert.Equal(t, 0, idx)
	})

	t.Run("plain B in F Major is wrong and requeued", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, s, 11)

		emitter := events.NewInMemoryEventEmitter(discardLogger())
		var got []*events.ReviewEvent
		emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.ReviewEvent) error {
			got = append(got, e)
			return nil
		}))
		svc := newService(s, constRand(0), emitter)

		result, err := svc.SubmitAnswer(ctx, deck.ID, card.ID, notation.Answer{Letter: domain.LetterB})
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Equal(t, 0, result.OldIndex)
		assert.Equal(t, 3, result.NewIndex)

		stored, err := s.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, stored.Len())
		idx, _ := stored.IndexOf(card.ID)
		assert.Equal(t, 3, idx)
		moved, _ := stored.Card(card.ID)
		assert.Equal(t, 1, moved.IncorrectCount)

		require.Len(t, got, 1)
		assert.Equal(t, card.ID, got[0].CardID)
		assert.False(t, got[0].Correct)
		assert.True(t, got[0].Requeued())
	})

	t.Run("miss clamps to the end of the deck", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, s, 2)
		svc := newService(s, constRand(5), nil)

		result, err := svc.SubmitAnswer(ctx, deck.ID, card.ID, notation.Answer{Letter: domain.LetterC})
		require.NoError(t, err)
		assert.Equal(t, 2, result.NewIndex)
	})

	t.Run("non-note card", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck := plainDeck(t, s, 2)
		svc := newService(s, nil, nil)
		first, _ := deck.At(0)

		_, err := svc.SubmitAnswer(ctx, deck.ID, first.ID, notation.Answer{Letter: domain.LetterA})
		assert.ErrorIs(t, err, study.ErrNotNoteCard)
	})

	t.Run("invalid answer", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, s, 0)
		svc := newService(s, nil, nil)

		_, err := svc.SubmitAnswer(ctx, deck.ID, card.ID, notation.Answer{Letter: "H"})
		assert.ErrorIs(t, err, study.ErrInvalidAnswer)
	})

	t.Run("unknown card", func(t *testing.T) {
		s := memory.NewDeckStore(discardLogger())
		deck, _ := noteDeck(t, s, 0)
		svc := newService(s, nil, nil)

		_, err := svc.SubmitAnswer(ctx, deck.ID, uuid.New(), notation.Answer{Letter: domain.LetterB})
		assert.ErrorIs(t, err, study.ErrCardNotFound)
	})

	t.Run("save failure", func(t *testing.T) {
		memStore := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, memStore, 3)
		loaded, err := memStore.GetDeck(ctx, deck.ID)
		require.NoError(t, err)

		s := &MockDeckStore{}
		s.On("GetDeck", mock.Anything, deck.ID).Return(loaded, nil)
		s.On("SaveDeck", mock.Anything, mock.AnythingOfType("*domain.Deck")).
			Return(store.ErrConflict)
		svc := newService(s, nil, nil)

		_, err = svc.SubmitAnswer(ctx, deck.ID, card.ID,
			notation.Answer{Letter: domain.LetterB, Accidental: domain.AccidentalFlat})
		require.Error(t, err)

		var serviceErr *study.ServiceError
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, "submit_answer", serviceErr.Operation)
		assert.ErrorIs(t, err, store.ErrConflict)
		s.AssertExpectations(t)
	})

	t.Run("failed save keeps the session history", func(t *testing.T) {
		memStore := memory.NewDeckStore(discardLogger())
		deck, card := noteDeck(t, memStore, 3)
		loaded, err := memStore.GetDeck(ctx, deck.ID)
		require.NoError(t, err)

		s := &MockDeckStore{}
		s.On("GetDeck", mock.Anything, deck.ID).Return(loaded, nil)
		s.On("SaveDeck", mock.Anything, mock.AnythingOfType("*domain.Deck")).
			Return(store.ErrConflict)
		svc := newService(s, constRand(0), nil)

		first, err := svc.NextCard(ctx, deck.ID)
		require.NoError(t, err)
		require.Equal(t, card.ID, first.ID)
		second, err := svc.NextCard(ctx, deck.ID)
		require.NoError(t, err)

		before, err := svc.Session(ctx, deck.ID)
		require.NoError(t, err)
		require.Contains(t, before.RecentlyShown, card.ID)

		_, err = svc.SubmitAnswer(ctx, deck.ID, card.ID, notation.Answer{Letter: domain.LetterB})
		assert.ErrorIs(t, err, store.ErrConflict)

		after, err := svc.Session(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, before.RecentlyShown, after.RecentlyShown)
		require.NotNil(t, after.LastShownID)
		assert.Equal(t, second.ID, *after.LastShownID)
	})
}

func TestRecordResult(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDeckStore(discardLogger())
	deck := plainDeck(t, s, 12)
	svc := newService(s, constRand(2), nil)

	target, _ := deck.At(2)
	result, err := svc.RecordResult(ctx, deck.ID, target.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.OldIndex)
	assert.Equal(t, 7, result.NewIndex)
	assert.Equal(t, "answer 2", result.Expected)

	result, err = svc.RecordResult(ctx, deck.ID, target.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 7, result.OldIndex)
	assert.Equal(t, 7, result.NewIndex)

	stored, err := s.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	got, _ := stored.Card(target.ID)
	assert.Equal(t, 1, got.CorrectCount)
	assert.Equal(t, 1, got.IncorrectCount)

	_, err = svc.RecordResult(ctx, uuid.New(), target.ID, true)
	assert.ErrorIs(t, err, study.ErrDeckNotFound)
}

func TestConcurrentTurns(t *testing.T) {
	ctx := context.Background()
	s := memory.NewDeckStore(discardLogger())
	decks := []*domain.Deck{plainDeck(t, s, 6), plainDeck(t, s, 6)}
	svc := newService(s, schedule.NewRandomSource(7), nil)

	var wg sync.WaitGroup
	for _, deck := range decks {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(deckID uuid.UUID) {
				defer wg.Done()
				for i := 0; i < 25; i++ {
					card, err := svc.NextCard(ctx, deckID)
					if !assert.NoError(t, err) {
						return
					}
					_, err = svc.RecordResult(ctx, deckID, card.ID, i%2 == 0)
					assert.NoError(t, err)
				}
			}(deck.ID)
		}
	}
	wg.Wait()

	for _, deck := range decks {
		stored, err := s.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, stored.Len())

		total := 0
		for _, c := range stored.Cards() {
			total += c.CorrectCount + c.IncorrectCount
		}
		assert.Equal(t, 100, total)
	}
}
