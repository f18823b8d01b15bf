package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same value, clamped to n-1.
type fixedRand int

func (f fixedRand) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}

func buildDeck(t *testing.T, n int) *domain.Deck {
	t.Helper()

	deck, err := domain.NewDeck("test deck", "")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		card, err := domain.NewCard("prompt", "answer")
		require.NoError(t, err)
		require.NoError(t, deck.AddCard(card))
	}
	return deck
}

func order(d *domain.Deck) []uuid.UUID {
	out := make([]uuid.UUID, 0, d.Len())
	for _, c := range d.Cards() {
		out = append(out, c.ID)
	}
	return out
}

func TestNextEmptyDeck(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), NewRandomSource(1))
	deck := buildDeck(t, 0)

	card, err := s.Next(deck, NewSession(deck.ID, 10))
	assert.Nil(t, card)
	assert.ErrorIs(t, err, domain.ErrEmptyDeck)
}

func TestNextNilArguments(t *testing.T) {
	t.Parallel()

	s := NewDefaultScheduler()
	deck := buildDeck(t, 2)

	_, err := s.Next(nil, NewSession(deck.ID, 10))
	assert.ErrorIs(t, err, ErrNilDeck)

	_, err = s.Next(deck, nil)
	assert.ErrorIs(t, err, ErrNilSession)
}

func TestNextSingleCardDeck(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), NewRandomSource(7))
	deck := buildDeck(t, 1)
	session := NewSession(deck.ID, 10)
	only, err := deck.At(0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		card, err := s.Next(deck, session)
		require.NoError(t, err)
		assert.Equal(t, only.ID, card.ID)
	}
}

func TestNextNeverRepeatsConsecutively(t *testing.T) {
	t.Parallel()

	for size := 2; size <= 15; size++ {
		s := NewScheduler(NewDefaultParams(), NewRandomSource(uint64(size)))
		deck := buildDeck(t, size)
		session := NewSession(deck.ID, 10)

		var last uuid.UUID
		for i := 0; i < 300; i++ {
			card, err := s.Next(deck, session)
			require.NoError(t, err)
			require.NotEqual(t, last, card.ID, "size %d draw %d repeated the previous card", size, i)
			last = card.ID
		}
	}
}

func TestNextRespectsHistoryWindow(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()
	k := params.HistorySize

	for _, size := range []int{k + 2, k + 5, 30} {
		s := NewScheduler(params, NewRandomSource(uint64(size)*31))
		deck := buildDeck(t, size)
		session := NewSession(deck.ID, k)

		window := k
		if size-1 < window {
			window = size - 1
		}

		var drawn []uuid.UUID
		for i := 0; i < 500; i++ {
			card, err := s.Next(deck, session)
			require.NoError(t, err)

			start := len(drawn) - window
			if start < 0 {
				start = 0
			}
			for _, prev := range drawn[start:] {
				require.NotEqual(t, prev, card.ID, "size %d draw %d repeated within window", size, i)
			}
			drawn = append(drawn, card.ID)
		}

		assert.LessOrEqual(t, len(session.Recent()), k)
	}
}

func TestNextFallbackWhenHistoryCoversDeck(t *testing.T) {
	t.Parallel()

	// Three cards with a history of ten: the window exhausts the deck after
	// two draws and selection falls back to "anything but the last one".
	s := NewScheduler(NewDefaultParams(), NewRandomSource(99))
	deck := buildDeck(t, 3)
	session := NewSession(deck.ID, 10)

	seen := make(map[uuid.UUID]int)
	var last uuid.UUID
	for i := 0; i < 200; i++ {
		card, err := s.Next(deck, session)
		require.NoError(t, err)
		require.NotEqual(t, last, card.ID)
		seen[card.ID]++
		last = card.ID
	}
	assert.Len(t, seen, 3)
}

func TestNextUpdatesSession(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), fixedRand(0))
	deck := buildDeck(t, 4)
	ids := order(deck)
	session := NewSession(deck.ID, 2)

	first, err := s.Next(deck, session)
	require.NoError(t, err)
	assert.Equal(t, ids[0], first.ID)
	assert.Equal(t, ids[0], session.LastShownID)
	assert.Empty(t, session.Recent(), "nothing is pushed on the first draw")

	second, err := s.Next(deck, session)
	require.NoError(t, err)
	assert.Equal(t, ids[1], second.ID)
	assert.Equal(t, []uuid.UUID{ids[0]}, session.Recent())

	third, err := s.Next(deck, session)
	require.NoError(t, err)
	assert.Equal(t, ids[2], third.ID)
	assert.Equal(t, []uuid.UUID{ids[0], ids[1]}, session.Recent())

	fourth, err := s.Next(deck, session)
	require.NoError(t, err)
	assert.Equal(t, ids[3], fourth.ID)
	assert.Equal(t, []uuid.UUID{ids[1], ids[2]}, session.Recent(), "oldest id is evicted at capacity")
}

func TestNextIsReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	deck := buildDeck(t, 20)

	draw := func(seed uint64) []uuid.UUID {
		s := NewScheduler(NewDefaultParams(), NewRandomSource(seed))
		session := NewSession(deck.ID, 10)
		var out []uuid.UUID
		for i := 0; i < 50; i++ {
			card, err := s.Next(deck, session)
			require.NoError(t, err)
			out = append(out, card.ID)
		}
		return out
	}

	assert.Equal(t, draw(42), draw(42))
}

func TestOnResultCorrectKeepsOrder(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), NewRandomSource(3))
	deck := buildDeck(t, 8)
	before := order(deck)
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	placement, err := s.OnResult(deck, NewSession(deck.ID, 10), before[4], true, now)
	require.NoError(t, err)

	assert.False(t, placement.Moved())
	assert.Equal(t, before, order(deck))

	card, err := deck.Card(before[4])
	require.NoError(t, err)
	assert.Equal(t, 1, card.CorrectCount)
	assert.Equal(t, 0, card.IncorrectCount)
	require.NotNil(t, card.LastReviewedAt)
	assert.True(t, card.LastReviewedAt.Equal(now))
}

func TestOnResultIncorrectRequeuesWithinRange(t *testing.T) {
	t.Parallel()

	params := NewDefaultParams()

	for seed := uint64(1); seed <= 200; seed++ {
		s := NewScheduler(params, NewRandomSource(seed))
		deck := buildDeck(t, 12)
		before := order(deck)
		orig := int(seed % 12)
		id := before[orig]

		placement, err := s.OnResult(deck, nil, id, false, time.Now())
		require.NoError(t, err)

		assert.Equal(t, 12, deck.Len())
		newIdx, ok := deck.IndexOf(id)
		require.True(t, ok)
		assert.Equal(t, placement.NewIndex, newIdx)

		lo := orig + params.MinRequeueOffset
		hi := orig + params.MaxRequeueOffset
		if lo > 11 {
			lo = 11
		}
		if hi > 11 {
			hi = 11
		}
		assert.GreaterOrEqual(t, newIdx, lo, "seed %d orig %d", seed, orig)
		assert.LessOrEqual(t, newIdx, hi, "seed %d orig %d", seed, orig)

		card, err := deck.Card(id)
		require.NoError(t, err)
		assert.Equal(t, 1, card.IncorrectCount)
	}
}

func TestOnResultIncorrectScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rng      fixedRand
		orig     int
		expected int
	}{
		{"smallest offset from index 2", 0, 2, 5},
		{"largest offset from index 2", 5, 2, 10},
		{"index 10 clamps to the end", 0, 10, 11},
		{"last card stays last", 5, 11, 11},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScheduler(NewDefaultParams(), tc.rng)
			deck := buildDeck(t, 12)
			before := order(deck)
			id := before[tc.orig]

			placement, err := s.OnResult(deck, nil, id, false, time.Now())
			require.NoError(t, err)
			assert.Equal(t, tc.orig, placement.OldIndex)
			assert.Equal(t, tc.expected, placement.NewIndex)

			after := order(deck)
			assert.Equal(t, id, after[tc.expected])
			assert.Len(t, after, 12)

			// Every other card keeps its relative order.
			var restBefore, restAfter []uuid.UUID
			for _, x := range before {
				if x != id {
					restBefore = append(restBefore, x)
				}
			}
			for _, x := range after {
				if x != id {
					restAfter = append(restAfter, x)
				}
			}
			assert.Equal(t, restBefore, restAfter)
		})
	}
}

func TestOnResultIncorrectForgetsRecent(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), fixedRand(0))
	deck := buildDeck(t, 12)
	session := NewSession(deck.ID, 10)

	var shown []uuid.UUID
	for i := 0; i < 3; i++ {
		card, err := s.Next(deck, session)
		require.NoError(t, err)
		shown = append(shown, card.ID)
	}
	require.Contains(t, session.Recent(), shown[0])

	_, err := s.OnResult(deck, session, shown[0], false, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, session.Recent(), shown[0])

	_, err = s.OnResult(deck, session, shown[1], true, time.Now())
	require.NoError(t, err)
	assert.Contains(t, session.Recent(), shown[1], "a correct answer leaves the history alone")
}

func TestOnResultUnknownCard(t *testing.T) {
	t.Parallel()

	s := NewDefaultScheduler()
	deck := buildDeck(t, 3)
	before := order(deck)

	_, err := s.OnResult(deck, nil, uuid.New(), false, time.Now())
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
	assert.Equal(t, before, order(deck))

	_, err = s.OnResult(nil, nil, before[0], true, time.Now())
	assert.ErrorIs(t, err, ErrNilDeck)
}

func TestOnResultIncorrectForgetsDuplicateHistory(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewDefaultParams(), fixedRand(0))
	deck := buildDeck(t, 4)
	ids := order(deck)
	session := NewSession(deck.ID, 5)

	// The fallback path re-shows cards already in the history.
	for i := 0; i < 6; i++ {
		_, err := s.Next(deck, session)
		require.NoError(t, err)
	}
	count := 0
	for _, id := range session.Recent() {
		if id == ids[0] {
			count++
		}
	}
	require.Equal(t, 2, count)

	_, err := s.OnResult(deck, session, ids[0], false, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, session.Recent(), ids[0])

	next, err := s.Next(deck, session)
	require.NoError(t, err)
	assert.Equal(t, ids[0], next.ID)
}

func TestNewSchedulerInvalidParamsUseDefaults(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&Params{MinRequeueOffset: 5, MaxRequeueOffset: 3}, fixedRand(0))
	deck := buildDeck(t, 12)
	ids := order(deck)

	require.NotPanics(t, func() {
		_, err := s.OnResult(deck, nil, ids[0], false, time.Now())
		require.NoError(t, err)
	})
	idx, ok := deck.IndexOf(ids[0])
	require.True(t, ok)
	assert.Equal(t, NewDefaultParams().MinRequeueOffset, idx)
}
