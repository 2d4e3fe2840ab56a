package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/charsheet/pkg/domain"
)

// Store implements ports.DocumentStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Record),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, id string, record *domain.Record) error {
	// Copy to ensure isolation, similar to serialization
	copied := *record
	copied.ID = id
	copied.Data = append([]byte(nil), record.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = &copied
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	ret := *record
	ret.Data = append([]byte(nil), record.Data...)
	return &ret, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored document ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
