// Package conversation implements the ConversationStore (C11): a bounded
// per-session turn log with FIFO turn eviction and LRU-by-touch session
// eviction, grounded on the teacher's bounded in-memory memory store.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/secondbrain/engine/contracts"
)

// Turn is one message in a session's history.
type Turn struct {
	Role    contracts.Role
	Content string
	At      time.Time
}

// Snapshot is an immutable copy of a session's state. Callers never
// receive a mutable reference into the store.
type Snapshot struct {
	SessionID string
	Turns     []Turn
}

type session struct {
	id         string
	turns      []Turn
	lastTouch  time.Time
}

// Store is the ConversationStore.
type Store struct {
	mu         sync.Mutex
	maxTurns   int
	maxSessions int
	sessions   map[string]*session
	now        func() time.Time
}

// New builds a ConversationStore. maxTurns and maxSessions must both be
// >= 1; otherwise construction fails with invalid_argument.
func New(maxTurns, maxSessions int) (*Store, error) {
	if maxTurns < 1 {
		return nil, contracts.NewError(contracts.KindInvalidArgument, "max_turns must be >= 1")
	}
	if maxSessions < 1 {
		return nil, contracts.NewError(contracts.KindInvalidArgument, "max_sessions must be >= 1")
	}
	return &Store{
		maxTurns:    maxTurns,
		maxSessions: maxSessions,
		sessions:    make(map[string]*session),
		now:         time.Now,
	}, nil
}

// GetOrCreate resolves a session ID. An empty or unknown ID yields a
// fresh session (this is also how the Planner implements its
// session-ownership rule: unknown IDs are silently replaced).
func (s *Store) GetOrCreate(sessionID string) (string, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		if sess, ok := s.sessions[sessionID]; ok {
			sess.lastTouch = s.now()
			return sessionID, snapshotOf(sess)
		}
	}

	newID := uuid.NewString()
	sess := &session{id: newID, lastTouch: s.now()}
	s.evictIfNeededLocked()
	s.sessions[newID] = sess
	return newID, snapshotOf(sess)
}

// HasSession reports whether sessionID is currently tracked.
func (s *Store) HasSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// ListSessionIDs returns every currently tracked session ID.
func (s *Store) ListSessionIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

// Append adds one turn to a session, evicting the oldest turn if the
// session is at max_turns, and returns the resulting snapshot. Appending
// to an unknown session ID creates it.
func (s *Store) Append(sessionID string, role contracts.Role, content string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{id: sessionID}
		s.evictIfNeededLocked()
		s.sessions[sessionID] = sess
	}

	sess.turns = append(sess.turns, Turn{Role: role, Content: content, At: s.now()})
	if len(sess.turns) > s.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.maxTurns:]
	}
	sess.lastTouch = s.now()

	return snapshotOf(sess)
}

// evictIfNeededLocked evicts the least-recently-touched session when the
// store is at max_sessions. Called with mu held. Any snapshot a reader
// already holds of the evicted session remains valid, since snapshots are
// independent copies.
func (s *Store) evictIfNeededLocked() {
	if len(s.sessions) < s.maxSessions {
		return
	}
	var oldestID string
	var oldestTouch time.Time
	first := true
	for id, sess := range s.sessions {
		if first || sess.lastTouch.Before(oldestTouch) {
			oldestID = id
			oldestTouch = sess.lastTouch
			first = false
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

func snapshotOf(sess *session) Snapshot {
	turns := make([]Turn, len(sess.turns))
	copy(turns, sess.turns)
	return Snapshot{SessionID: sess.id, Turns: turns}
}
