package pipeline

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one client connection. It is logged in as at most one
// account at a time.
type Session struct {
	id string

	mu     sync.RWMutex
	userID string
	token  string
}

// NewSession returns an anonymous, logged out session.
func NewSession() *Session {
	return &Session{id: uuid.NewString()}
}

func (s *Session) ID() string {
	return s.id
}

// UserID returns the account the session is logged in as.
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// Token returns the resume token of the current login.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Logout forgets the logged in account.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.token = ""
}

func (s *Session) setUser(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.token = token
}
