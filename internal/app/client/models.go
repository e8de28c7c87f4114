package client

import (
	"context"
	"sync"

	"hydrosync/internal/app/client/eventstore"
)

// Storage хранение снимка хранилища событий между запусками
type Storage interface {
	// Lock делает хранилище доступным для записи этому процессу
	Lock() error
	SaveSnapshot(ctx context.Context, snap eventstore.Snapshot) error
	LoadSnapshot(ctx context.Context) (eventstore.Snapshot, error)
	Close() error
}

// MemoryStorage - временное in-memory хранилище, если SQLite недоступен
type MemoryStorage struct {
	mu   sync.Mutex
	snap eventstore.Snapshot
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Lock() error {
	return nil
}

func (m *MemoryStorage) SaveSnapshot(_ context.Context, snap eventstore.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.Revision >= m.snap.Revision {
		m.snap = snap
	}
	return nil
}

func (m *MemoryStorage) LoadSnapshot(_ context.Context) (eventstore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// State состояние сессии клиента (state.json)
type State struct {
	UserID   string `json:"user_id"`
	Login    string `json:"login"`
	LastSync int64  `json:"last_sync,omitempty"`
}
