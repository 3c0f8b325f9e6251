// Package session persists the signed-in user's bearer token
package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSession is returned when no token has been stored
var ErrNoSession = errors.New("no active session")

// Session is what the client keeps between runs
type Session struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
}

// MemoryStore keeps the session in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates a store, optionally seeded with a token
func NewMemoryStore(token string) *MemoryStore {
	s := &MemoryStore{}
	if token != "" {
		s.session = &Session{Token: token}
	}
	return s
}

// Token returns the current bearer token or ErrNoSession
func (s *MemoryStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.Token == "" {
		return "", ErrNoSession
	}
	return s.session.Token, nil
}

// SetToken replaces the bearer token, keeping the user fields
func (s *MemoryStore) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		s.session = &Session{}
	}
	s.session.Token = token
	return nil
}

// Save stores a full session
func (s *MemoryStore) Save(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &sess
	return nil
}

// Load returns the stored session or ErrNoSession
func (s *MemoryStore) Load(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, ErrNoSession
	}
	sess := *s.session
	return &sess, nil
}

// Clear forgets the session
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
