package summary

import "fmt"

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventContent  EventKind = "content"
	EventDone     EventKind = "done"
	EventError    EventKind = "error"
)

// Stage names a step of the detailed pipeline.
type Stage string

const (
	StageNarrative Stage = "P1"
	StageOutline   Stage = "P2"
	StageExpand    Stage = "P3"
	StageDone      Stage = "DONE"
)

// Event is one item on a pipeline's output channel. Exactly one of Done or
// Error terminates a stream.
type Event struct {
	Kind    EventKind
	Stage   Stage
	Percent int
	Chunk   string
	Text    string
	Err     error
}

func progress(stage Stage, percent int) Event {
	return Event{Kind: EventProgress, Stage: stage, Percent: percent}
}

func content(chunk string) Event { return Event{Kind: EventContent, Chunk: chunk} }

func done(text string) Event { return Event{Kind: EventDone, Text: text} }

func failed(err error) Event { return Event{Kind: EventError, Err: err} }

// State is the lifecycle of one pipeline run.
type State int

const (
	StateIdle State = iota
	StateNarrative
	StateOutline
	StateExpand
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNarrative:
		return "running(P1)"
	case StateOutline:
		return "running(P2)"
	case StateExpand:
		return "running(P3)"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// terminal reports whether no further transition is allowed.
func (s State) terminal() bool { return s == StateSucceeded || s == StateFailed }

// machine enforces Idle -> P1 -> P2 -> P3 -> Succeeded, with Failed reachable
// from any non-terminal state.
type machine struct {
	state State
}

var allowed = map[State]State{
	StateIdle:      StateNarrative,
	StateNarrative: StateOutline,
	StateOutline:   StateExpand,
	StateExpand:    StateSucceeded,
}

func (m *machine) advance(to State) error {
	if m.state.terminal() {
		return fmt.Errorf("pipeline already %s", m.state)
	}
	if to != StateFailed && allowed[m.state] != to {
		return fmt.Errorf("invalid transition %s -> %s", m.state, to)
	}
	m.state = to
	return nil
}
