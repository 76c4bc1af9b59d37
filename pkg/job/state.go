// Package job drives the long-form generation workflow: a backend job is
// created once, its progress events are consumed over a persistent stream,
// and human-review checkpoints pause the job until an explicit decision is
// submitted.
package job

import "encoding/json"

// State is the lifecycle state of a job.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateAwaitingReview
	StateDone
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateAwaitingReview:
		return "awaiting_review"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "created":
		*s = StateCreated
	case "running":
		*s = StateRunning
	case "awaiting_review":
		*s = StateAwaitingReview
	case "done":
		*s = StateDone
	case "failed":
		*s = StateFailed
	default:
		*s = StateCreated
	}
	return nil
}
