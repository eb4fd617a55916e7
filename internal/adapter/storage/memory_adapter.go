package storage

import (
	"context"
	"sync"

	"github.com/lhchen/storefront/internal/core/domain"
)

// MemoryAdapter is an in-process key/value store plus event bus. It stands in
// for Redis in tests and when the server runs without a backing store.
type MemoryAdapter struct {
	mu      sync.Mutex
	data    map[string][]byte
	idem    map[string]bool
	subs    map[int]chan domain.ChangeEvent
	nextSub int
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data: make(map[string][]byte),
		idem: make(map[string]bool),
		subs: make(map[int]chan domain.ChangeEvent),
	}
}

func (m *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MemoryAdapter) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryAdapter) SetIdempotency(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idem[key] {
		return false, nil
	}
	m.idem[key] = true
	return true, nil
}

func (m *MemoryAdapter) Publish(_ context.Context, ev domain.ChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop; consumers recompute from the store anyway
		}
	}
	return nil
}

func (m *MemoryAdapter) Subscribe(_ context.Context) (<-chan domain.ChangeEvent, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan domain.ChangeEvent, 16)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel, nil
}
