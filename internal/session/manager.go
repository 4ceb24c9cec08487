package session

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
	"videosummary/internal/db"
	"videosummary/models"
)

const DefaultActiveSessions = 256

// Manager keeps recently used sessions in memory and loads the rest from
// the store on demand.
type Manager struct {
	mu     sync.Mutex
	active *lru.Cache[string, *Container]
	store  db.SessionStore
	logger logrus.FieldLogger
}

func NewManager(store db.SessionStore, size int, logger logrus.FieldLogger) (*Manager, error) {
	if size <= 0 {
		size = DefaultActiveSessions
	}
	// Evicted containers are retired so a later Get never leaves two live
	// containers for one id.
	cache, err := lru.NewWithEvict[string, *Container](size, func(_ string, c *Container) { c.Retire() })
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{active: cache, store: store, logger: logger}, nil
}

// Get returns the active container for id, loading it from the store on a miss.
func (m *Manager) Get(ctx context.Context, id string) (*Container, error) {
	if c, ok := m.active.Get(id); ok {
		return c, nil
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.active.Get(id); ok {
		return c, nil
	}
	c := NewContainer(s)
	m.active.Add(id, c)
	return c, nil
}

// Replace makes s the active state for its id, discarding any in-memory
// state and outstanding generations. Used by submission and when a history
// entry is reopened.
func (m *Manager) Replace(s *models.VideoSession) (*Container, error) {
	if s == nil || s.ID == "" {
		return nil, apperrors.Errorf(apperrors.InvalidInput, "session.Replace", "session id is required")
	}
	c := NewContainer(s)
	m.mu.Lock()
	if old, ok := m.active.Peek(s.ID); ok {
		old.Retire()
	}
	m.active.Add(s.ID, c)
	m.mu.Unlock()
	m.logger.WithField("session_id", s.ID).Debug("session activated")
	return c, nil
}

// Drop evicts id from memory only. The dropped container is retired.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.active.Peek(id); ok {
		c.Retire()
	}
	m.active.Remove(id)
}

func (m *Manager) Len() int { return m.active.Len() }
