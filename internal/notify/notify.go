// Package notify records user-facing failure notices per session.
package notify

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"videosummary/internal/apperrors"
)

const DefaultLimit = 50

type Notification struct {
	Kind      apperrors.Kind `json:"kind"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Recorder keeps the most recent notifications of every session.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	items  map[string][]Notification
	logger logrus.FieldLogger
}

func NewRecorder(limit int, logger logrus.FieldLogger) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recorder{limit: limit, items: map[string][]Notification{}, logger: logger}
}

func (r *Recorder) Record(sessionID string, kind apperrors.Kind, message string) {
	n := Notification{Kind: kind, Message: message, CreatedAt: time.Now().UTC()}

	r.mu.Lock()
	list := append(r.items[sessionID], n)
	if len(list) > r.limit {
		list = list[len(list)-r.limit:]
	}
	r.items[sessionID] = list
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{"session_id": sessionID, "kind": kind}).Warn(message)
}

// List returns a copy of the notifications of sessionID, oldest first.
func (r *Recorder) List(sessionID string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items[sessionID]))
	copy(out, r.items[sessionID])
	return out
}

func (r *Recorder) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
}
