// Package identity tracks storefront sessions: every visitor gets a guest
// session, and login upgrades the session in place so the guest cart can be
// merged into the user's server cart.
package identity

import (
	"errors"
	"sync"
	"time"
)

var ErrInvalidToken = errors.New("invalid token")

// Session is the identity attached to one storefront visitor.
type Session struct {
	userID    string
	guestID   string
	expiresAt time.Time
}

// UserID returns the authenticated user, empty for guests.
func (s Session) UserID() string { return s.userID }

// GuestID is the key of the visitor's guest cart record.
func (s Session) GuestID() string { return s.guestID }

func (s Session) Authenticated() bool { return s.userID != "" }

// Service issues and resolves session tokens in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]Session
	guestTTL time.Duration
	userTTL  time.Duration
}

func New() *Service {
	return &Service{
		sessions: make(map[string]Session),
		guestTTL: 30 * 24 * time.Hour,
		userTTL:  3 * time.Hour,
	}
}

// IssueGuest creates a fresh guest session.
func (s *Service) IssueGuest() (string, Session, error) {
	token, err := randomToken()
	if err != nil {
		return "", Session{}, err
	}
	guestID, err := randomID()
	if err != nil {
		return "", Session{}, err
	}
	sess := Session{guestID: guestID, expiresAt: time.Now().Add(s.guestTTL)}
	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return token, sess, nil
}

// Login upgrades the session behind the token to an authenticated one. The
// guest ID is kept so the caller can merge the guest cart afterwards.
func (s *Service) Login(token, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return Session{}, ErrInvalidToken
	}
	sess.userID = userID
	sess.expiresAt = time.Now().Add(s.userTTL)
	s.sessions[token] = sess
	return sess, nil
}

// Lookup resolves a token to its session, expiring lazily.
func (s *Service) Lookup(token string) (Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return Session{}, false
	}
	return sess, true
}

// Logout drops the session.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
