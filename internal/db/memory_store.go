package db

import (
	"context"
	"sort"
	"sync"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

// MemoryStore is a process-local SessionStore used when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.VideoSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*models.VideoSession{}}
}

func (m *MemoryStore) Upsert(_ context.Context, s *models.VideoSession) error {
	if s == nil || s.ID == "" {
		return apperrors.Errorf(apperrors.PersistenceFailure, "db.Upsert", "session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.VideoSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.Errorf(apperrors.NotFound, "db.Get", "session %s", id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) List(context.Context) ([]*models.VideoSession, error) {
	m.mu.RLock()
	out := make([]*models.VideoSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
