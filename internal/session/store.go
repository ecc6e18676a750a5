package session

import (
	"context"
	"sort"
	"sync"

	perrors "github.com/turtacn/Protoscribe/pkg/errors"
)

// Store persists session snapshots between requests or restarts.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	// Load returns an ErrCodeSessionNotFound error for unknown ids.
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.ID] = snap
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[id]
	if !ok {
		return Snapshot{}, notFound("Load", id)
	}
	return snap, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) Close() error { return nil }

func notFound(op, id string) error {
	return perrors.New(perrors.ErrCodeSessionNotFound, op, "no session "+id, nil)
}

// Personal.AI order the ending
