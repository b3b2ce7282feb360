package bookings

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore implements Store using in-memory storage. Useful for
// tests and for sessions that do not need bookings to survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]Booking
}

// NewMemoryStore creates an empty in-memory booking store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]Booking),
	}
}

// Load returns a copy of the owner's mapping so callers cannot mutate
// the store behind its lock.
func (m *MemoryStore) Load(ctx context.Context, owner string) (map[string]Booking, error) {
	if owner == "" {
		return nil, ErrInvalidOwner
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Booking, len(m.records[owner]))
	maps.Copy(out, m.records[owner])
	return out, nil
}

// Save replaces the owner's mapping with a copy of the given one.
func (m *MemoryStore) Save(ctx context.Context, owner string, records map[string]Booking) error {
	if owner == "" {
		return ErrInvalidOwner
	}

	cp := make(map[string]Booking, len(records))
	maps.Copy(cp, records)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[owner] = cp
	return nil
}
