// Package session holds the in-memory state of active video sessions.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"videosummary/models"
)

// Generation resources. Translation tickets are per language, see TranslationResource.
const (
	ResourceSubtitles = "subtitles"
	ResourceBrief     = "brief"
	ResourceDetail    = "detail"
	ResourceChat      = "chat"
	ResourceMedia     = "media"
)

func TranslationResource(lang string) string { return "translation/" + lang }

// Ticket identifies one generation of a resource. A result may only be
// committed while its ticket is still the newest for that resource.
type Ticket struct {
	Resource string
	Seq      uint64
}

// versions is shared by every container so that a reloaded session never
// reuses a version number of the container it replaced.
var versions atomic.Uint64

// Revision is a snapshot together with the version it was taken at.
type Revision struct {
	Session *models.VideoSession
	Version uint64
}

// Container guards one session. Every mutation assigns a new, strictly
// greater version.
type Container struct {
	mu      sync.Mutex
	s       *models.VideoSession
	version uint64
	tickets map[string]uint64
	now     func() time.Time
	// retired is set once the manager no longer holds this container.
	retired bool
}

func NewContainer(s *models.VideoSession) *Container {
	if s == nil {
		s = models.NewVideoSession()
	}
	return &Container{
		s:       s.Clone(),
		version: versions.Add(1),
		tickets: map[string]uint64{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *Container) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.ID
}

// Snapshot returns a deep copy of the current state.
func (c *Container) Snapshot() *models.VideoSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Clone()
}

func (c *Container) Revision() Revision {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revisionLocked()
}

// Update merges p into the session and stamps UpdatedAt.
func (c *Container) Update(p models.SessionPatch) Revision {
	c.mu.Lock()
	defer c.mu.Unlock()
	p.Apply(c.s)
	return c.touchLocked()
}

// Begin supersedes any outstanding generation of resource.
func (c *Container) Begin(resource string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickets[resource]++
	return Ticket{Resource: resource, Seq: c.tickets[resource]}
}

// Peek returns the current ticket of resource without superseding it.
func (c *Container) Peek(resource string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Ticket{Resource: resource, Seq: c.tickets[resource]}
}

func (c *Container) Current(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickets[t.Resource] == t.Seq
}

// Commit applies p only if t is still current. Stale results are dropped.
func (c *Container) Commit(t Ticket, p models.SessionPatch) (Revision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retired || c.tickets[t.Resource] != t.Seq {
		return c.revisionLocked(), false
	}
	p.Apply(c.s)
	return c.touchLocked(), true
}

// Mutate runs fn on the live session if t is current.
func (c *Container) Mutate(t Ticket, fn func(s *models.VideoSession)) (Revision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retired || c.tickets[t.Resource] != t.Seq {
		return c.revisionLocked(), false
	}
	fn(c.s)
	return c.touchLocked(), true
}

// AppendMessage adds m to the chat history unless c is retired.
func (c *Container) AppendMessage(m models.Message) (Revision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retired {
		return c.revisionLocked(), false
	}
	c.s.ChatMessages = append(c.s.ChatMessages, m)
	return c.touchLocked(), true
}

// Retire marks c as dropped or replaced. Commits, mutations and appends are
// refused from then on, so a generation still running on c cannot write
// into the session that replaced it or resurrect a deleted one.
func (c *Container) Retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retired = true
}

func (c *Container) Retired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retired
}

// RemoveMessage deletes the message with id, if present.
func (c *Container) RemoveMessage(id string) Revision {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.s.ChatMessages[:0:0]
	for _, m := range c.s.ChatMessages {
		if m.ID != id {
			msgs = append(msgs, m)
		}
	}
	c.s.ChatMessages = msgs
	return c.touchLocked()
}

func (c *Container) touchLocked() Revision {
	c.s.UpdatedAt = c.now()
	c.version = versions.Add(1)
	return c.revisionLocked()
}

func (c *Container) revisionLocked() Revision {
	return Revision{Session: c.s.Clone(), Version: c.version}
}

// NextVersion reserves a version without touching any container. Deletions
// use it so that older queued writes of the same session are skipped.
func NextVersion() uint64 { return versions.Add(1) }
