// Package storeimpl provides the task.Store implementations: an in-memory
// store for tests and a write-through YAML store for the server.
package storeimpl

import (
	"context"
	"sort"
	"sync"

	"github.com/taskmarket/taskmarket/internal/task"
)

// MemoryStore keeps all engine state in maps.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*task.Task
	owned map[string][]string
	count uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*task.Task),
		owned: make(map[string][]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*task.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false, nil
	}
	copied := *t
	return &copied, true, nil
}

func (s *MemoryStore) Put(_ context.Context, t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tasks[t.ID] = &copied
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *MemoryStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) Owned(_ context.Context, account string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.owned[account]...), nil
}

func (s *MemoryStore) SetOwned(_ context.Context, account string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) == 0 {
		delete(s.owned, account)
		return nil
	}
	s.owned[account] = append([]string(nil), ids...)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

func (s *MemoryStore) SetCount(_ context.Context, n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	return nil
}
