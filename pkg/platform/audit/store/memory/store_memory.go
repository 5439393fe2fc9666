// Package memory provides the in-memory audit store used by unit tests and
// single-process development runs.
package memory

import (
	"context"
	"sync"

	id "gatehouse/pkg/domain"
	"gatehouse/pkg/platform/audit"
	"gatehouse/pkg/platform/pagination"
	"gatehouse/pkg/platform/sentinel"
)

// Store keeps entries in insertion order. It favors clarity over
// performance.
type Store struct {
	mu      sync.RWMutex
	entries []*audit.Entry
	byID    map[id.EntryID]*audit.Entry
}

func New() *Store {
	return &Store{byID: make(map[id.EntryID]*audit.Entry)}
}

func (s *Store) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[entry.ID]; ok {
		return sentinel.ErrConflict
	}
	stored := *entry
	s.entries = append(s.entries, &stored)
	s.byID[entry.ID] = &stored
	return nil
}

func (s *Store) FindByID(_ context.Context, entryID id.EntryID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byID[entryID]
	if !ok || entry.IsDeleted {
		return nil, sentinel.ErrNotFound
	}
	found := *entry
	return &found, nil
}

func (s *Store) List(_ context.Context, page pagination.Page) ([]*audit.Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first: walk the insertion order backwards.
	visible := make([]*audit.Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if !s.entries[i].IsDeleted {
			visible = append(visible, s.entries[i])
		}
	}

	start, end := page.Slice(len(visible))
	out := make([]*audit.Entry, 0, end-start)
	for _, entry := range visible[start:end] {
		found := *entry
		out = append(out, &found)
	}
	return out, len(visible), nil
}
