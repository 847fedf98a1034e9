package history

import (
	"context"
	"sync"

	"focusroom/internal/types"
)

// MemoryStore is an in-memory types.HistoryStore. Used by tests and by
// `--no-redis` runs where persistence across sessions is not wanted.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]types.Exchange
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]types.Exchange)}
}

// Load returns a copy of the exchange list for key.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]types.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]types.Exchange, len(stored))
	copy(out, stored)
	return out, nil
}

// Replace stores a copy of the full exchange list under key.
func (s *MemoryStore) Replace(ctx context.Context, key string, history []types.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]types.Exchange, len(history))
	copy(stored, history)
	s.data[key] = stored
	return nil
}

// Clear deletes the history at key.
func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
