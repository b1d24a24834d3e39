// Package state holds the reconciled application snapshots. The sync core
// only ever writes here; reads belong to the UI layer.
package state

import (
	"sync"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// Store is the application state contract the reconciliation controller
// writes to. ReplaceGroup swaps one group snapshot wholesale by id;
// ReplaceGroupList swaps the caller's whole group list.
type Store interface {
	ReplaceGroup(groupID string, snapshot *models.Group)
	ReplaceGroupList(list []models.Group)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]*models.Group
	list   []models.Group
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{groups: make(map[string]*models.Group)}
}

// ReplaceGroup swaps the snapshot held for a group. Applying a snapshot for
// a group nobody is watching is harmless.
func (s *MemoryStore) ReplaceGroup(groupID string, snapshot *models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groupID] = snapshot
}

// ReplaceGroupList swaps the full group list.
func (s *MemoryStore) ReplaceGroupList(list []models.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list
	for i := range list {
		g := list[i]
		s.groups[g.ID] = &g
	}
}

// Group returns the current snapshot for a group, or nil.
func (s *MemoryStore) Group(groupID string) *models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[groupID]
}

// GroupList returns the current group list.
func (s *MemoryStore) GroupList() []models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}
