package identity

import (
	"sync"

	"farmers_markets/internal/domain"
)

// Session holds the signed-in user, if any.
type Session struct {
	mu   sync.RWMutex
	user *User
}

func (s *Session) Login(u User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
}

// Logout reports whether somebody was signed in.
func (s *Session) Logout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.user != nil
	s.user = nil
	return was
}

func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Session) Current() (domain.Principal, bool) {
	u, ok := s.User()
	if !ok {
		return domain.Principal{}, false
	}
	return domain.Principal{ID: u.ID, Login: u.Login}, true
}
