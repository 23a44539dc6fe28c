package registry

import (
	"context"
	"sync"
)

// Memory is the in-process registry.
type Memory struct {
	mu     sync.RWMutex
	rows   map[string]Entry
	byAddr map[string]string // address -> row key of the latest login from it
}

func NewMemory() *Memory {
	return &Memory{
		rows:   make(map[string]Entry),
		byAddr: make(map[string]string),
	}
}

func (m *Memory) Register(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows[e.Key()] = e
	m.byAddr[e.Address] = e.Key()
	return nil
}

func (m *Memory) Deregister(_ context.Context, accountID int64, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(accountID, address)
	delete(m.rows, key)
	if m.byAddr[address] == key {
		delete(m.byAddr, address)
	}
	return nil
}

func (m *Memory) ByAddress(_ context.Context, address string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.byAddr[address]
	if !ok {
		return nil, nil
	}
	e, ok := m.rows[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.rows))
	for _, e := range m.rows {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sortEntries(entries)
	return entries, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = make(map[string]Entry)
	m.byAddr = make(map[string]string)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
