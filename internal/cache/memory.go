package cache

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryBackend is the in-process Backend used for tests and dev runs
// without Redis.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]memEntry
	tags map[string]map[string]struct{}
	now  func() time.Time

	// Err, when set, is returned by every operation. Lets tests exercise
	// the degrade-to-miss paths.
	Err error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: map[string]memEntry{},
		tags: map[string]map[string]struct{}{},
		now:  time.Now,
	}
}

// SetClock injects a clock for TTL tests.
func (m *MemoryBackend) SetClock(now func() time.Time) { m.now = now }

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.data[key]
	if !ok || m.now().After(e.expiresAt) {
		delete(m.data, key)
		return nil, ErrMiss
	}
	return e.raw, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.data[key] = memEntry{raw: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryBackend) Tag(_ context.Context, tag, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if m.tags[tag] == nil {
		m.tags[tag] = map[string]struct{}{}
	}
	m.tags[tag][key] = struct{}{}
	return nil
}

func (m *MemoryBackend) TaggedKeys(_ context.Context, tag string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	keys := make([]string, 0, len(m.tags[tag]))
	for k := range m.tags[tag] {
		keys = append(keys, k)
	}
	return keys, nil
}
