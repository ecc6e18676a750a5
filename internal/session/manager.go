package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/turtacn/Protoscribe/internal/monitor"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/logger"
)

// Manager hands out isolated sessions and writes them through to a Store.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    Store
}

func NewManager(store Store) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{sessions: make(map[string]*Session), store: store}
}

// Create starts a new session under a fresh UUID and persists it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := New(uuid.NewString())
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	monitor.SessionsActive.Set(float64(n))
	logger.Log.Info("Session created", "session", s.ID())
	return s, nil
}

// Get returns the live session, loading it from the store if this process
// has not seen it yet.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, perrors.New(perrors.ErrCodeSessionNotFound, "Get", "malformed session id "+id, err)
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it meanwhile.
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s = Restore(snap)
	m.sessions[id] = s
	monitor.SessionsActive.Set(float64(len(m.sessions)))
	return s, nil
}

// Save writes the session's current snapshot to the store. When the write
// fails the live session is dropped, so the next Get reloads the last state
// the store accepted instead of serving the unsaved change.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	err := m.store.Save(ctx, s.Snapshot())
	if err == nil {
		return nil
	}

	m.mu.Lock()
	if m.sessions[s.ID()] == s {
		delete(m.sessions, s.ID())
	}
	n := len(m.sessions)
	m.mu.Unlock()

	monitor.SessionsActive.Set(float64(n))
	logger.Log.Warn("Session dropped after failed save", "session", s.ID(), "err", err)
	return err
}

// Delete forgets the session here and in the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	monitor.SessionsActive.Set(float64(n))
	logger.Log.Info("Session deleted", "session", id)
	return nil
}

// List returns the ids known to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Close releases the store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Personal.AI order the ending
