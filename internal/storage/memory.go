package storage

import (
	"context"
	"sync"

	"github.com/xaenox/member-qa/internal/models"
)

// MemoryStore keeps the snapshot in process memory. It satisfies Store for
// deployments without a database, where a restart simply refetches.
type MemoryStore struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveMessages(_ context.Context, msgs []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append([]models.Message(nil), msgs...)
	return nil
}

func (s *MemoryStore) LoadMessages(_ context.Context) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.Message(nil), s.msgs...), nil
}

func (s *MemoryStore) Close() error { return nil }
