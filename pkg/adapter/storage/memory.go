package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
)

// Memory is a process-local key/value store.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ interfaces.KVStore = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[key]
	if !exists {
		return nil, nil
	}
	return slices.Clone(data), nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

func (m *Memory) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var old []byte
	if data, ok := m.objects[key]; ok {
		old = slices.Clone(data)
	}
	value, err := fn(old)
	if err != nil {
		return err
	}
	if value != nil {
		m.objects[key] = slices.Clone(value)
	}
	return nil
}
