package prefs

import (
	"context"
	"sync"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

// MemoryPreferences keeps preferences in process memory. SaveErr, when set,
// is returned by every Save so tests can exercise persistence failures.
type MemoryPreferences struct {
	mu      sync.RWMutex
	data    map[string][]byte
	saves   int
	SaveErr error
}

var _ ports.Preferences = (*MemoryPreferences)(nil)

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{data: make(map[string][]byte)}
}

func (p *MemoryPreferences) Load(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v, ok := p.data[key]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return append([]byte(nil), v...), nil
}

func (p *MemoryPreferences) Save(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SaveErr != nil {
		return p.SaveErr
	}
	p.data[key] = append([]byte(nil), data...)
	p.saves++
	return nil
}

// Saves returns the number of successful Save calls
func (p *MemoryPreferences) Saves() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.saves
}
