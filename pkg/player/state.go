package player

import "time"

// State represents the current playback state of the engine.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateError
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// StateChange represents a playback state transition.
type StateChange struct {
	From      State
	To        State
	Timestamp time.Time
	Reason    string
}

// Station describes the source being played: an opaque playable URI plus
// display metadata supplied by discovery or playlist collaborators.
type Station struct {
	Name     string
	URI      string
	Genre    string
	Homepage string
}
