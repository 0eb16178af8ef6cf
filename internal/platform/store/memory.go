package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is a thread-safe, in-memory Store for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[Collection]Snapshot
	now         func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]Snapshot),
		now:         time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, c Collection) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if !c.Valid() {
		return Snapshot{}, ErrUnknownCollection
	}

	s.mu.RLock()
	snap, ok := s.collections[c]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, nil
	}

	out := snap
	out.Data = append(json.RawMessage(nil), snap.Data...)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, c Collection, data json.RawMessage, expected int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !c.Valid() {
		return 0, ErrUnknownCollection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.collections[c]
	if current.Version != expected {
		return 0, ErrVersionConflict
	}
	next := Snapshot{
		Data:      append(json.RawMessage(nil), data...),
		Version:   current.Version + 1,
		UpdatedAt: s.now().UTC(),
	}
	s.collections[c] = next
	return next.Version, nil
}

func (s *MemoryStore) Version(ctx context.Context, c Collection) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !c.Valid() {
		return 0, ErrUnknownCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[c].Version, nil
}
