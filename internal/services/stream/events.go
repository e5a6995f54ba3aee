package stream

import (
	"time"

	"github.com/temirov/bundle/internal/types"
)

// EventKind identifies a progress event.
type EventKind string

const (
	// EventKindReset starts a run with an indeterminate counter.
	EventKindReset EventKind = "reset"
	// EventKindSetMaximum carries the number of files that will be written.
	EventKindSetMaximum EventKind = "set_maximum"
	// EventKindAdvance is emitted once per written file.
	EventKindAdvance EventKind = "advance"
	// EventKindDone is the terminal event of a successful run.
	EventKindDone EventKind = "done"
	// EventKindError is the terminal event of a failed run.
	EventKindError EventKind = "error"
)

// Event is one message from the bundling worker to its consumer.
type Event struct {
	RunID     string    `json:"runId"`
	Kind      EventKind `json:"kind"`
	EmittedAt time.Time `json:"emittedAt"`

	Maximum int    `json:"maximum,omitempty"`
	Current int    `json:"current,omitempty"`
	Label   string `json:"label,omitempty"`
	// Path is the file being bundled on advance and the destination on done.
	Path    string               `json:"path,omitempty"`
	Message string               `json:"message,omitempty"`
	Summary *types.BundleSummary `json:"summary,omitempty"`
}

// IsTerminal reports whether no further events follow this one.
func (event Event) IsTerminal() bool {
	return event.Kind == EventKindDone || event.Kind == EventKindError
}
