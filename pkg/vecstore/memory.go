package vecstore

import "sync"

// MemoryStore is an in-memory Store for tests and store-less operation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]ObjectRecord
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]ObjectRecord)}
}

// Upsert writes a record, keyed by ObjectID.
func (m *MemoryStore) Upsert(record ObjectRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records[record.ObjectID] = record
	return nil
}

// FindNearby returns the closest same-class record within radius.
func (m *MemoryStore) FindNearby(classID int, position [3]float64, radius float64) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	id, ok := nearest(m.snapshot(), classID, position, radius)
	return id, ok, nil
}

// QueryByEmbedding returns the top k matches with similarity >= minSim.
func (m *MemoryStore) QueryByEmbedding(query []float32, k int, minSim float32) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return rank(m.snapshot(), query, k, minSim), nil
}

// Get retrieves a record by ID.
func (m *MemoryStore) Get(objectID string) (ObjectRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ObjectRecord{}, ErrClosed
	}
	r, ok := m.records[objectID]
	if !ok {
		return ObjectRecord{}, ErrNotFound
	}
	return r, nil
}

// Delete removes a record by ID.
func (m *MemoryStore) Delete(objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.records, objectID)
	return nil
}

// Count returns the number of stored records.
func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.records), nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// snapshot must be called with the lock held.
func (m *MemoryStore) snapshot() []ObjectRecord {
	out := make([]ObjectRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
