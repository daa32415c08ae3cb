// Package session holds the authenticated user and access token for the
// lifetime of the process. Nothing is written to disk.
package session

import (
	"errors"
	"sync"
	"time"

	"bookshelf/internal/user"
)

var (
	// ErrUnauthenticated is returned when no access token is held.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrTokenExpired is returned when the held token is past its exp claim.
	ErrTokenExpired = errors.New("access token expired")
)

// Store is the process-wide session. Only the login flow calls Login; any
// holder may end the session with Logout, e.g. after a 401.
type Store struct {
	mu    sync.RWMutex
	user  user.User
	token string
}

// New returns an empty, logged-out store.
func New() *Store {
	return &Store{}
}

// Login replaces the current session.
func (s *Store) Login(u user.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.token = token
}

// Logout clears the session.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user.User{}
	s.token = ""
}

// Current returns the logged-in user and token. ok is false when logged out.
func (s *Store) Current() (u user.User, token string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token, s.token != ""
}

// User returns the logged-in user, zero when logged out.
func (s *Store) User() user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the access token, "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authorize checks that a live token is held at now. Tokens that are not
// JWTs carry no known expiry and are accepted; the backend has the final say.
func (s *Store) Authorize(now time.Time) error {
	token := s.Token()
	if token == "" {
		return ErrUnauthenticated
	}
	exp, ok := ExpiresAt(token)
	if ok && !now.Before(exp) {
		return ErrTokenExpired
	}
	return nil
}
