package session

import (
	"context"
	"errors"
	"sync"

	"intake-agent/internal/domain"
)

// MemoryStore is the in-process Store. Sessions live until completion or
// process exit; there is no eviction.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]domain.Session)}
}

func (s *MemoryStore) Get(_ context.Context, conversationID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[conversationID]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the stored value without a Put.
	return &sess, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *domain.Session) error {
	if sess == nil || sess.ConversationID == "" {
		return errors.New("session: session with conversation ID required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ConversationID] = *sess
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
	return nil
}
