package jobs

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSequencerSize bounds how many sessions a Sequencer remembers. It
// must stay above the number of saves that can be queued or running at once.
const DefaultSequencerSize = 4096

// Sequencer serializes writes per session and drops writes carrying a
// version older than one already applied. Only the most recently written
// sessions are remembered.
type Sequencer struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *sequence]
}

type sequence struct {
	mu   sync.Mutex
	last uint64
}

// NewSequencer remembers up to size sessions; size <= 0 selects
// DefaultSequencerSize.
func NewSequencer(size int) *Sequencer {
	if size <= 0 {
		size = DefaultSequencerSize
	}
	entries, err := lru.New[string, *sequence](size)
	if err != nil {
		panic(err)
	}
	return &Sequencer{entries: entries}
}

func (s *Sequencer) entry(id string) *sequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries.Get(id)
	if !ok {
		e = &sequence{}
		s.entries.Add(id, e)
	}
	return e
}

// Apply runs fn under the per-session lock if version is newer than the last
// applied one. A failed fn does not advance the version.
func (s *Sequencer) Apply(id string, version uint64, fn func() error) (bool, error) {
	e := s.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	if version <= e.last {
		return false, nil
	}
	if err := fn(); err != nil {
		return false, err
	}
	e.last = version
	return true, nil
}

// Len reports how many sessions are remembered.
func (s *Sequencer) Len() int { return s.entries.Len() }
