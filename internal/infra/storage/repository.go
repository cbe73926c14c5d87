// Package storage provides the persistence layer for save slots and the
// activity journal. The engine only sees the SaveRepository interface.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotNotFound is returned when a slot has never been written.
var ErrSlotNotFound = errors.New("save slot not found")

// SaveRepository stores opaque save blobs under a string key.
type SaveRepository interface {
	// Load returns the blob stored under slot, or ErrSlotNotFound.
	Load(ctx context.Context, slot string) ([]byte, error)

	// Save replaces the blob stored under slot.
	Save(ctx context.Context, slot string, data []byte) error

	// Delete removes the slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, slot string) error
}

// MemoryRepository is an in-process SaveRepository. Tests use it in place
// of SQLite.
type MemoryRepository struct {
	mu    sync.RWMutex
	slots map[string][]byte
	saves int
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{slots: make(map[string][]byte)}
}

// Load returns a copy of the blob stored under slot.
func (m *MemoryRepository) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data and counts the write.
func (m *MemoryRepository) Save(_ context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Delete removes the slot if present.
func (m *MemoryRepository) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

// Saves reports how many writes reached the repository.
func (m *MemoryRepository) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
