package assistant

import (
	"context"
	"log"
	"sync"
	"time"
)

// Message is one turn of an assistant conversation.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type session struct {
	messages   []Message
	lastActive time.Time
}

// SessionStore keeps per-session conversation history in memory with an
// explicit TTL. It is injected where needed rather than shared as package
// state, and ownership of the sweep lifecycle belongs to Run.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*session
	maxHistory int
	ttl        time.Duration
	now        func() time.Time
}

// NewSessionStore creates a store that keeps at most maxHistory messages per
// session and drops sessions idle longer than ttl.
func NewSessionStore(maxHistory int, ttl time.Duration) *SessionStore {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		sessions:   make(map[string]*session),
		maxHistory: maxHistory,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Append records a message, creating the session on first use and trimming
// history beyond the cap.
func (s *SessionStore) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}

	sess.messages = append(sess.messages, Message{Role: role, Content: content, Timestamp: s.now().UTC()})
	if len(sess.messages) > s.maxHistory {
		sess.messages = sess.messages[len(sess.messages)-s.maxHistory:]
	}
	sess.lastActive = s.now()
}

// History returns up to limit most recent messages for a session (all when
// limit <= 0).
func (s *SessionStore) History(sessionID string, limit int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	msgs := sess.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear removes a session's history.
func (s *SessionStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// ActiveCount reports the number of live sessions.
func (s *SessionStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweep drops sessions idle beyond the TTL and returns how many were evicted.
func (s *SessionStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	var evicted int
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps expired sessions periodically until the context is canceled.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("sessions: sweep stopped")
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				log.Printf("sessions: evicted %d expired sessions", n)
			}
		}
	}
}
