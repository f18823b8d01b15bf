package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
	"github.com/phrazzld/scry-notes/internal/generation"
	"github.com/phrazzld/scry-notes/internal/platform/memory"
	"github.com/phrazzld/scry-notes/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGenerator is a mock implementation of the generation.Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateDeck(ctx context.Context, req generation.GenerateRequest) (*domain.Deck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deck), args.Error(1)
}

func newDeckService(t *testing.T) (service.DeckService, *memory.DeckStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	decks := memory.NewDeckStore(log)
	gen := generation.NewNoteGenerator(schedule.NewRandomSource(11), log)
	svc, err := service.NewDeckService(decks, gen, log)
	require.NoError(t, err)
	return svc, decks
}

func TestNewDeckServiceRequiresDependencies(t *testing.T) {
	decks := memory.NewDeckStore(nil)

	_, err := service.NewDeckService(nil, &MockGenerator{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewDeckService(decks, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateDeck(t *testing.T) {
	ctx := context.Background()
	svc, decks := newDeckService(t)

	note := domain.Note{Letter: domain.LetterF, Octave: 5, KeySignature: "G Major", TimeSignature: "3/4"}
	deck, err := svc.CreateDeck(ctx, "Mixed", "notes and facts", []service.CardInput{
		{Prompt: "Capital of France?", Answer: "Paris"},
		{Note: &note},
	})
	require.NoError(t, err)
	require.Equal(t, 2, deck.Len())

	noteCard, _ := deck.At(1)
	assert.Equal(t, "F#", noteCard.CanonicalAnswer)
	assert.Equal(t, "Name the note F5 in G Major (3/4)", noteCard.Prompt)

	stored, err := decks.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mixed", stored.Name)
	assert.Equal(t, 2, stored.Len())

	t.Run("invalid name", func(t *testing.T) {
		_, err := svc.CreateDeck(ctx, "  ", "", nil)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("invalid card", func(t *testing.T) {
		_, err := svc.CreateDeck(ctx, "Deck", "", []service.CardInput{{Prompt: "no answer"}})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("invalid note", func(t *testing.T) {
		bad := domain.Note{Letter: "X"}
		_, err := svc.CreateDeck(ctx, "Deck", "", []service.CardInput{{Note: &bad}})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDeckLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDeckService(t)

	deck, err := svc.CreateDeck(ctx, "Lifecycle", "", nil)
	require.NoError(t, err)

	card, err := svc.AddCard(ctx, deck.ID, service.CardInput{Prompt: "2+2", Answer: "4"})
	require.NoError(t, err)

	got, err := svc.GetDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	summaries, err := svc.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].CardCount)

	assert.ErrorIs(t, svc.RemoveCard(ctx, deck.ID, uuid.New()), service.ErrCardNotFound)
	require.NoError(t, svc.RemoveCard(ctx, deck.ID, card.ID))

	_, err = svc.AddCard(ctx, uuid.New(), service.CardInput{Prompt: "q", Answer: "a"})
	assert.ErrorIs(t, err, service.ErrDeckNotFound)

	_, err = svc.AddCard(ctx, deck.ID, service.CardInput{Prompt: "q"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	require.NoError(t, svc.DeleteDeck(ctx, deck.ID))
	assert.ErrorIs(t, svc.DeleteDeck(ctx, deck.ID), service.ErrDeckNotFound)

	_, err = svc.GetDeck(ctx, deck.ID)
	assert.ErrorIs(t, err, service.ErrDeckNotFound)
}

func TestGenerateDeck(t *testing.T) {
	ctx := context.Background()

	t.Run("stores generated deck", func(t *testing.T) {
		svc, decks := newDeckService(t)

		deck, err := svc.GenerateDeck(ctx, generation.GenerateRequest{KeySignature: "F Major", Count: 20})
		require.NoError(t, err)
		assert.Equal(t, 20, deck.Len())

		stored, err := decks.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, stored.Len())
	})

	t.Run("invalid request", func(t *testing.T) {
		svc, _ := newDeckService(t)
		_, err := svc.GenerateDeck(ctx, generation.GenerateRequest{Count: generation.MaxCards + 1})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("generator failure", func(t *testing.T) {
		gen := &MockGenerator{}
		boom := errors.New("generator exploded")
		gen.On("GenerateDeck", mock.Anything, mock.Anything).Return(nil, boom)

		svc, err := service.NewDeckService(memory.NewDeckStore(nil), gen, nil)
		require.NoError(t, err)

		_, err = svc.GenerateDeck(ctx, generation.GenerateRequest{Count: 1})
		var serviceErr *service.DeckServiceError
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, "generate_deck", serviceErr.Operation)
		assert.ErrorIs(t, err, boom)
		gen.AssertExpectations(t)
	})
}

func TestImportDecks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newDeckService(t)

	a, err := domain.NewDeck("A", "")
	require.NoError(t, err)
	b, err := domain.NewDeck("B", "")
	require.NoError(t, err)

	n, err := svc.ImportDecks(ctx, []*domain.Deck{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err := domain.NewDeck("C", "")
	require.NoError(t, err)
	n, err = svc.ImportDecks(ctx, []*domain.Deck{c, a})
	assert.ErrorIs(t, err, service.ErrDuplicate)
	assert.Equal(t, 1, n)
}
