package securestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

// MemoryStore is an in-memory implementation of the SecureStore interface.
// It is primarily intended for tests and can simulate denied access groups
// and store failures.
type MemoryStore struct {
	items  map[string]map[string][]byte
	denied map[string]bool
	err    error
	mu     sync.RWMutex
}

var _ ports.SecureStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory secure store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]map[string][]byte),
		denied: make(map[string]bool),
	}
}

// Get returns a copy of the stored item
func (s *MemoryStore) Get(ctx context.Context, service, accessGroup string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.denied[accessGroup] {
		return nil, fmt.Errorf("reading %q: %w", accessGroup, core.ErrAccessDenied)
	}

	data, ok := s.items[accessGroup][service]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data
func (s *MemoryStore) Put(ctx context.Context, service, accessGroup string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if s.denied[accessGroup] {
		return fmt.Errorf("writing %q: %w", accessGroup, core.ErrAccessDenied)
	}

	group, ok := s.items[accessGroup]
	if !ok {
		group = make(map[string][]byte)
		s.items[accessGroup] = group
	}
	group[service] = append([]byte(nil), data...)
	return nil
}

// Delete removes an item; missing items are ignored
func (s *MemoryStore) Delete(service, accessGroup string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[accessGroup], service)
}

// Deny makes every operation on the access group fail with core.ErrAccessDenied
func (s *MemoryStore) Deny(accessGroup string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.denied[accessGroup] = true
}

// FailWith makes every operation fail with err until called with nil
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}
