package sequencer

import (
	"errors"
	"fmt"
	"slices"
)

// State is the boost lifecycle position.
type State int

const (
	Idle State = iota
	Activating
	Active
	Deactivating
)

var stateNames = [...]string{
	Idle:         "idle",
	Activating:   "activating",
	Active:       "active",
	Deactivating: "deactivating",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	i := slices.Index(stateNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unknown boost state %q", b)
	}
	*s = State(i)
	return nil
}

// InProgress reports whether a cycle is running.
func (s State) InProgress() bool {
	return s == Activating || s == Deactivating
}

var (
	// ErrBusy is returned when a trigger arrives while a cycle is running.
	// The trigger has no effect.
	ErrBusy = errors.New("a boost cycle is already in progress")

	ErrAlreadyActive = errors.New("boost is already active")
	ErrNotActive     = errors.New("boost is not active")
)

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State    State    `json:"state"`
	Progress float64  `json:"progress"`
	Armed    []string `json:"armed,omitempty"`

	// Current is the label of the tweak being applied or reverted.
	Current string `json:"current,omitempty"`
}

// Active reports whether boost is on and settled.
func (s Snapshot) Active() bool { return s.State == Active }

// InProgress reports whether a cycle is running.
func (s Snapshot) InProgress() bool { return s.State.InProgress() }
