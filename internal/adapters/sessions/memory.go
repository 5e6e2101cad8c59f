package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]ports.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]ports.Session)}
}

func (m *MemoryStore) Create(_ context.Context, s ports.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Deck = slices.Clone(s.Deck)
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (ports.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return ports.Session{}, domain.ErrSessionNotFound
	}
	s.Deck = slices.Clone(s.Deck)
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s ports.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	cur.Deck = slices.Clone(s.Deck)
	cur.Draws = s.Draws
	cur.UpdatedAt = s.UpdatedAt
	m.sessions[s.ID] = cur
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
