// Package memstore is an in-memory AnchorStore, used as a test double
// and for one-shot runs that never touch disk.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/gaurav-prasanna/pagemark/core"
)

// Store holds anchors in memory, partitioned by page URL.
type Store struct {
	mu    sync.RWMutex
	byURL map[string][]core.Anchor
	byID  map[string]string // anchor id -> url
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		byURL: make(map[string][]core.Anchor),
		byID:  make(map[string]string),
	}
}

// GetAnchorsForURL returns the anchors stored for a page, in insertion
// order.
func (s *Store) GetAnchorsForURL(_ context.Context, url string) ([]core.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Anchor(nil), s.byURL[url]...), nil
}

// AppendAnchor stores a new anchor. Duplicate ids are rejected.
func (s *Store) AppendAnchor(_ context.Context, a core.Anchor) error {
	if err := a.Validate(nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return fmt.Errorf("anchor %s already stored", a.ID)
	}
	s.byURL[a.URL] = append(s.byURL[a.URL], a)
	s.byID[a.ID] = a.URL
	return nil
}

// UpdateAnchor replaces the stored anchor with the same id.
func (s *Store) UpdateAnchor(_ context.Context, a core.Anchor) error {
	if err := a.Validate(nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.byID[a.ID]
	if !ok {
		return core.ErrNotFound
	}
	anchors := s.byURL[url]
	for i, old := range anchors {
		if old.ID == a.ID {
			anchors[i] = a
			return nil
		}
	}
	return core.ErrNotFound
}

// RemoveAnchor deletes an anchor by id. Removing an unknown id is a
// no-op.
func (s *Store) RemoveAnchor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.byID[id]
	if !ok {
		return nil
	}
	anchors := s.byURL[url]
	for i, a := range anchors {
		if a.ID == id {
			s.byURL[url] = append(anchors[:i], anchors[i+1:]...)
			break
		}
	}
	delete(s.byID, id)
	return nil
}

// All returns every stored anchor, for listing and stats.
func (s *Store) All(_ context.Context) ([]core.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []core.Anchor
	for _, anchors := range s.byURL {
		all = append(all, anchors...)
	}
	return all, nil
}
