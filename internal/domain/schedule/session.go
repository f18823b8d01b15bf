package schedule

import (
	"github.com/google/uuid"
)

// Session is the per-deck study state: the ids shown recently and the id
// shown last. It lives for one study run and is never persisted.
type Session struct {
	DeckID      uuid.UUID
	LastShownID uuid.UUID

	capacity int
	recent   []uuid.UUID
}

// NewSession creates an empty session for a deck. capacity bounds the
// recently-shown history.
func NewSession(deckID uuid.UUID, capacity int) *Session {
	if capacity < 0 {
		capacity = 0
	}
	return &Session{
		DeckID:   deckID,
		capacity: capacity,
		recent:   make([]uuid.UUID, 0, capacity),
	}
}

// Capacity returns the maximum history length.
func (s *Session) Capacity() int {
	return s.capacity
}

// Recent returns the recently shown ids, oldest first.
func (s *Session) Recent() []uuid.UUID {
	out := make([]uuid.UUID, len(s.recent))
	copy(out, s.recent)
	return out
}

// HasShown reports whether any card has been drawn in this session.
func (s *Session) HasShown() bool {
	return s.LastShownID != uuid.Nil
}

func (s *Session) isRecent(id uuid.UUID) bool {
	for _, r := range s.recent {
		if r == id {
			return true
		}
	}
	return false
}

// push appends id and evicts the oldest entries beyond capacity.
func (s *Session) push(id uuid.UUID) {
	if s.capacity == 0 {
		return
	}
	s.recent = append(s.recent, id)
	if over := len(s.recent) - s.capacity; over > 0 {
		s.recent = append(s.recent[:0], s.recent[over:]...)
	}
}

// Forget removes every occurrence of id from the recent history. The
// history can hold an id more than once after the fallback path in Next.
func (s *Session) Forget(id uuid.UUID) {
	kept := s.recent[:0]
	for _, r := range s.recent {
		if r != id {
			kept = append(kept, r)
		}
	}
	s.recent = kept
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	cp := *s
	cp.recent = make([]uuid.UUID, len(s.recent), s.capacity)
	copy(cp.recent, s.recent)
	return &cp
}

// Reset clears the history and the last shown id.
func (s *Session) Reset() {
	s.recent = s.recent[:0]
	s.LastShownID = uuid.Nil
}
