package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryBackend keeps slots in process memory. Slots vanish on restart.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryBackend) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	if !entry.expiresAt.After(m.now()) {
		delete(m.entries, id)
		return nil, ErrSlotNotFound
	}
	return append([]byte(nil), entry.data...), nil
}

func (m *MemoryBackend) Set(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[id] = memoryEntry{data: append([]byte(nil), data...), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}

// CleanupExpired drops up to batchSize slots that expired more than
// retention ago.
func (m *MemoryBackend) CleanupExpired(_ context.Context, retention time.Duration, batchSize int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-retention)
	var removed int64
	for id, entry := range m.entries {
		if batchSize > 0 && removed >= int64(batchSize) {
			break
		}
		if entry.expiresAt.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
