package store

import (
	"context"
	"sync"
)

// MemoryStore is a SlotStore kept in process memory. It backs tests and
// ephemeral sessions that should not outlive the process.
type MemoryStore struct {
	mu     sync.RWMutex
	slots  map[string]string
	closed bool

	// SaveHook, when set, runs before a Save is applied; a non-nil return
	// aborts the Save without touching any slot.
	SaveHook func(slots map[string]string) error
}

var _ SlotStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, slot string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrStoreClosed
	}
	value, ok := m.slots[slot]
	if !ok {
		return "", ErrSlotNotFound
	}
	return value, nil
}

func (m *MemoryStore) Save(_ context.Context, slots map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if m.SaveHook != nil {
		if err := m.SaveHook(slots); err != nil {
			return err
		}
	}
	for slot, value := range slots {
		m.slots[slot] = value
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, slots ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	for _, slot := range slots {
		delete(m.slots, slot)
	}
	return nil
}

// Set writes a single slot directly, bypassing SaveHook.
func (m *MemoryStore) Set(slot, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = value
}

func (m *MemoryStore) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
