package memory

import (
	"context"
	"sync"
)

// Store loads and saves conversations by session id.
// Load returns a nil Conversation and no error for an unknown session.
type Store interface {
	Load(ctx context.Context, sessionID string) (Conversation, error)
	Save(ctx context.Context, sessionID string, conv Conversation) error
}

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Conversation)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID].Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = conv.Clone()
	return nil
}
