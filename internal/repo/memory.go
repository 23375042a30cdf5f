package repo

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemory returns a Store that keeps profiles in process memory.
func NewMemory() *Repo {
	return newRepo(&memoryBackend{records: make(map[string][]byte)})
}

func (b *memoryBackend) get(_ context.Context, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *memoryBackend) put(_ context.Context, id string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[id] = append([]byte(nil), data...)
	return nil
}
