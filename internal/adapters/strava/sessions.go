package strava

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
)

// CookieName is the session cookie set after the OAuth callback.
const CookieName = "ascent_session"

// SessionStore keeps OAuth tokens in memory, keyed by a random session
// ID handed to the browser as a cookie.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Token
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Token)}
}

// Create stores a token and returns the new session ID.
func (s *SessionStore) Create(tok Token) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := hex.EncodeToString(buf)

	s.mu.Lock()
	s.sessions[id] = tok
	s.mu.Unlock()
	return id, nil
}

// Get returns the token for a session ID.
func (s *SessionStore) Get(id string) (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.sessions[id]
	return tok, ok
}

// Update replaces the token of an existing session, used after refresh.
func (s *SessionStore) Update(id string, tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		s.sessions[id] = tok
	}
}

// Delete drops a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
