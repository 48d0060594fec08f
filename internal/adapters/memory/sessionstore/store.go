package sessionstore

import (
	"context"
	"sync"

	clockport "github.com/weddingpass/pass-api/internal/ports/out/clock"
	"github.com/weddingpass/pass-api/internal/ports/out/sessionstore"
)

// Store is an in-memory implementation of sessionstore.Store for single-instance deployments.
// Expired sessions are dropped lazily on read.
type Store struct {
	clk clockport.Clock

	mu       sync.RWMutex
	sessions map[string]sessionstore.Session
}

func NewStore(clk clockport.Clock) *Store {
	return &Store{
		clk:      clk,
		sessions: make(map[string]sessionstore.Session),
	}
}

func (s *Store) Put(_ context.Context, sess sessionstore.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) Get(_ context.Context, id string) (sessionstore.Session, bool, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return sessionstore.Session{}, false, nil
	}
	if !s.clk.Now().Before(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return sessionstore.Session{}, false, nil
	}
	return sess, true, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
