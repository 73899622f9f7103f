package credentials

import (
	"context"
	"sync"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage holds the token for the process lifetime only. It is the
// fallback when no durable backend is configured.
type MemoryStorage struct {
	lock  sync.Mutex
	token string
	found bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Read(ctx context.Context) (string, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.token, m.found, nil
}

func (m *MemoryStorage) Write(ctx context.Context, token string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.token = token
	m.found = true
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.token = ""
	m.found = false
	return nil
}
