package leaderboard

import (
	"context"
	"fmt"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records []Record
	names   map[string]bool
}

func NewMemory() *Memory {
	return &Memory{names: make(map[string]bool)}
}

func (m *Memory) Save(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := NameKey(r.Name)
	if m.names[key] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, r.Name)
	}
	m.names[key] = true
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *Memory) ExistsByName(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names[NameKey(name)], nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.names = make(map[string]bool)
	return nil
}
