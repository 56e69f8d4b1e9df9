package store

import (
	"encoding/json"
	"sync"

	"carechat/pkg/models"
)

// Memory is an in-memory Blob used by tests and as the degraded mode when
// the Pebble database cannot be opened. It serializes through JSON so load
// results are copies, never shared references.
type Memory struct {
	mu   sync.Mutex
	blob []byte

	// FailWrites makes Save and Clear drop their input, simulating disabled
	// or quota-exceeded storage.
	FailWrites bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load deserializes the held blob; nil when empty or corrupt.
func (m *Memory) Load() *models.ConversationStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil
	}
	var cs models.ConversationStore
	if err := json.Unmarshal(m.blob, &cs); err != nil {
		return nil
	}
	if cs.MessagesBySession == nil {
		cs.MessagesBySession = map[string][]models.Message{}
	}
	return &cs
}

// Save shallow-merges the partial over held state and replaces the blob.
func (m *Memory) Save(partial Partial) {
	if m.FailWrites {
		return
	}
	cur := m.Load()
	if cur == nil {
		cur = emptyStore()
	}
	applyPartial(cur, partial)

	data, err := json.Marshal(cur)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.blob = data
	m.mu.Unlock()
}

// Clear drops the held blob.
func (m *Memory) Clear() {
	if m.FailWrites {
		return
	}
	m.mu.Lock()
	m.blob = nil
	m.mu.Unlock()
}
