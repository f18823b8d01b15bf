package study

import (
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/domain/schedule"
)

// deckSession pairs a scheduling session with the lock that serializes
// study turns on its deck.
type deckSession struct {
	mu      sync.Mutex
	session *schedule.Session
}

// sessionRegistry owns one deckSession per deck.
type sessionRegistry struct {
	mu       sync.Mutex
	capacity int
	sessions map[uuid.UUID]*deckSession
}

func newSessionRegistry(capacity int) *sessionRegistry {
	return &sessionRegistry{
		capacity: capacity,
		sessions: make(map[uuid.UUID]*deckSession),
	}
}

// acquire returns the deck's session, creating it if needed, with its lock
// held. The caller must call release.
func (r *sessionRegistry) acquire(deckID uuid.UUID) *deckSession {
	r.mu.Lock()
	ds, ok := r.sessions[deckID]
	if !ok {
		ds = &deckSession{session: schedule.NewSession(deckID, r.capacity)}
		r.sessions[deckID] = ds
	}
	r.mu.Unlock()

	ds.mu.Lock()
	return ds
}

func (ds *deckSession) release() {
	ds.mu.Unlock()
}

// lookup returns the deck's session without creating one.
func (r *sessionRegistry) lookup(deckID uuid.UUID) (*deckSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, ok := r.sessions[deckID]
	return ds, ok
}

// remove drops the deck's session, reporting whether one existed.
func (r *sessionRegistry) remove(deckID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[deckID]; !ok {
		return false
	}
	delete(r.sessions, deckID)
	return true
}

// len returns the number of live sessions.
func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func snapshot(s *schedule.Session) *SessionInfo {
	info := &SessionInfo{
		DeckID:        s.DeckID,
		Capacity:      s.Capacity(),
		RecentlyShown: s.Recent(),
	}
	if s.HasShown() {
		id := s.LastShownID
		info.LastShownID = &id
	}
	return info
}
