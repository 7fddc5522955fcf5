// Package storage persists the resumable part of a session between runs.
package storage

import (
	"sync"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// StorageKey names the persisted session inside the storage file.
const StorageKey = "auth-storage"

// Persister reads and writes the persisted {token, user} pair.
type Persister interface {
	Load() (models.PersistedSession, error)
	Save(models.PersistedSession) error
	Clear() error
}

// MemoryStore is an in-process Persister.
type MemoryStore struct {
	session models.PersistedSession
	saves   int
	mu      sync.Mutex
}

// NewMemoryStore creates a MemoryStore seeded with initial.
func NewMemoryStore(initial models.PersistedSession) *MemoryStore {
	return &MemoryStore{session: initial}
}

// Load returns the stored pair.
func (m *MemoryStore) Load() (models.PersistedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.PersistedSession{Token: m.session.Token, User: m.session.User.Clone()}, nil
}

// Save replaces the stored pair.
func (m *MemoryStore) Save(p models.PersistedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = models.PersistedSession{Token: p.Token, User: p.User.Clone()}
	m.saves++
	return nil
}

// Clear removes the stored pair.
func (m *MemoryStore) Clear() error {
	return m.Save(models.PersistedSession{})
}

// Saves returns how many writes have happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
