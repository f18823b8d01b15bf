package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler keeps every event it sees and optionally fails.
type recordingHandler struct {
	mu     sync.Mutex
	events []*ReviewEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *ReviewEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func testEvent() *ReviewEvent {
	return NewReviewEvent(uuid.New(), uuid.New(), false, 2, 7, time.Now())
}

func TestInMemoryEventEmitter(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(log)
		assert.NoError(t, emitter.EmitEvent(context.Background(), testEvent()))
	})

	t.Run("every handler receives the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(log)
		h1, h2 := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)
		assert.Equal(t, 2, emitter.HandlerCount())

		event := testEvent()
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		require.Equal(t, 1, h1.count())
		require.Equal(t, 1, h2.count())
		assert.Same(t, event, h1.events[0])
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(log)
		first := errors.New("first failure")
		h1 := &recordingHandler{err: first}
		h2 := &recordingHandler{err: errors.New("second failure")}
		h3 := &recordingHandler{}
		emitter.RegisterHandler(h1)
		emitter.RegisterHandler(h2)
		emitter.RegisterHandler(h3)

		err := emitter.EmitEvent(context.Background(), testEvent())
		assert.ErrorIs(t, err, first)
		assert.Equal(t, 1, h3.count())
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		var got *ReviewEvent
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, e *ReviewEvent) error {
			got = e
			return nil
		}))
		event := testEvent()
		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Same(t, event, got)
	})
}

func TestNewReviewEvent(t *testing.T) {
	deckID, cardID := uuid.New(), uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))

	event := NewReviewEvent(deckID, cardID, true, 4, 4, at)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeCardReviewed, event.Type)
	assert.Equal(t, deckID, event.DeckID)
	assert.Equal(t, cardID, event.CardID)
	assert.True(t, event.Correct)
	assert.False(t, event.Requeued())
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.True(t, event.OccurredAt.Equal(at))

	assert.True(t, testEvent().Requeued())
}

func TestLogHandler(t *testing.T) {
	buf, log := logger.NewTestLogger(t)
	handler := NewLogHandler(log)

	event := testEvent()
	require.NoError(t, handler.HandleEvent(context.Background(), event))

	entries, err := buf.FindEntries("card reviewed")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, event.CardID.String(), entries[0]["card_id"])
	assert.Equal(t, false, entries[0]["correct"])
	assert.Equal(t, float64(7), entries[0]["new_index"])
	assert.Equal(t, true, entries[0]["requeued"])
}
