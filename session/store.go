package session

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrMarkerNotFound is returned by Store.Load when no marker is persisted under a key
var ErrMarkerNotFound = errors.New("session marker not found")

// MarkerKey is the key the marker is persisted under when no client key is in the context
const MarkerKey = "user"

// Store persists serialized session markers, one per key.
// Implementations guard their own state; concurrent writers to one key follow last-writer-wins.
type Store interface {
	// Save replaces the marker persisted under key
	Save(ctx context.Context, key string, marker []byte) error

	// Load returns the marker persisted under key or ErrMarkerNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Clear removes the marker under key; clearing a missing key is not an error
	Clear(ctx context.Context, key string) error
}

// MemoryStore implements Store using in-memory storage.
// It is suitable for tests and ephemeral single-process use.
type MemoryStore struct {
	markers map[string][]byte
	mutex   sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{markers: make(map[string][]byte)}
}

// Save stores a copy of marker
func (m *MemoryStore) Save(ctx context.Context, key string, marker []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.markers[key] = slices.Clone(marker)
	return nil
}

// Load returns a copy of the stored marker
func (m *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	marker, ok := m.markers[key]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	return slices.Clone(marker), nil
}

// Clear removes the stored marker
func (m *MemoryStore) Clear(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.markers, key)
	return nil
}

// Count returns the number of stored markers
func (m *MemoryStore) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.markers)
}
