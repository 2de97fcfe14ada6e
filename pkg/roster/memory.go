package roster

import (
	"context"
	"sync"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// MemoryStore is an in-memory roster store for tests and local rendering.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string]*Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]*Event)}
}

// Seed inserts an event, replacing any existing entry with the same id.
func (s *MemoryStore) Seed(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := ev
	cp.Guests = append([]card.Guest(nil), ev.Guests...)
	s.events[ev.ID] = &cp
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, eventID string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, errors.New(errors.ErrCodeEventNotFound, "Event not found")
	}
	cp := *ev
	cp.Guests = append([]card.Guest(nil), ev.Guests...)
	return &cp, nil
}

// SetProcessing implements Store.
func (s *MemoryStore) SetProcessing(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return errors.New(errors.ErrCodeEventNotFound, "Event not found")
	}
	ev.ProcessingStatus = StatusProcessing
	return nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, eventID string, guests []card.Guest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return "", errors.New(errors.ErrCodeEventNotFound, "Event not found")
	}
	ev.Guests = merge(ev.Guests, guests)
	ev.ProcessingStatus = StatusCompleted
	return ev.CustomerID, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
