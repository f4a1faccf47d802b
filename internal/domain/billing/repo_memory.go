package billing

import (
	"sync"
)

type memoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewMemoryDraftStore returns a process-local DraftStore.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[string]*Draft)}
}

func (m *memoryDraftStore) Get(id string) (*Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d.clone(), nil
}

func (m *memoryDraftStore) Put(d *Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.ID] = d.clone()
	return nil
}

func (m *memoryDraftStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drafts[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

func (m *memoryDraftStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}
