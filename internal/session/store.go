// Package session maps session keys to live conversations.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KouCha61ue/MIndCore/internal/llm"
	. "github.com/KouCha61ue/MIndCore/internal/logging"
)

// Factory creates a conversation with empty history.
type Factory func() (llm.Conversation, error)

// Store holds at most one conversation per session key, in memory only.
type Store struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]llm.Conversation
}

// NewStore creates a store that creates conversations with factory.
func NewStore(factory Factory) *Store {
	return &Store{
		factory:  factory,
		sessions: make(map[string]llm.Conversation),
	}
}

// NewProviderStore creates a store backed by provider.NewConversation.
func NewProviderStore(provider llm.Provider) *Store {
	return NewStore(provider.NewConversation)
}

// GetOrCreate returns the conversation for key, creating it if needed.
// Concurrent first calls for one key all receive the same conversation.
func (s *Store) GetOrCreate(key string) (llm.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.sessions[key]; ok {
		return conv, nil
	}
	conv, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("create conversation for %s: %w", key, err)
	}
	s.sessions[key] = conv
	L_debug("session: created", "key", key, "total", len(s.sessions))
	return conv, nil
}

// Get returns the conversation for key without creating one.
func (s *Store) Get(key string) (llm.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.sessions[key]
	return conv, ok
}

// Reset discards the conversation for key. Resetting an unknown key is a no-op.
func (s *Store) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[key]; !ok {
		return
	}
	delete(s.sessions, key)
	L_debug("session: reset", "key", key, "total", len(s.sessions))
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Keys returns the live session keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
