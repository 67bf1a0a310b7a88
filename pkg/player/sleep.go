package player

import "time"

// SleepAction selects what the engine does when the sleep timer fires.
type SleepAction int

const (
	SleepStop SleepAction = iota
	SleepPause
	SleepQuit
)

func (a SleepAction) String() string {
	switch a {
	case SleepStop:
		return "stop"
	case SleepPause:
		return "pause"
	case SleepQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// SleepPresets lists the timer durations offered by the shell, in minutes.
var SleepPresets = []int{15, 30, 45, 60, 90, 120}

// Sleep timer bounds. Custom durations are clamped into this range; the
// warning event fires once when the remaining time drops to WarnThreshold,
// and only for timers longer than that threshold.
const (
	MinSleepDuration   = 1 * time.Minute
	MaxSleepDuration   = 480 * time.Minute
	SleepWarnThreshold = 5 * time.Minute
)

// ClampSleepDuration bounds a requested sleep duration to the supported
// range.
func ClampSleepDuration(d time.Duration) time.Duration {
	if d < MinSleepDuration {
		return MinSleepDuration
	}
	if d > MaxSleepDuration {
		return MaxSleepDuration
	}
	return d
}

// SleepEventKind discriminates sleep timer notifications.
type SleepEventKind int

const (
	SleepTick SleepEventKind = iota
	SleepWarning
	SleepFired
	SleepCancelled
)

func (k SleepEventKind) String() string {
	switch k {
	case SleepTick:
		return "tick"
	case SleepWarning:
		return "warning"
	case SleepFired:
		return "fired"
	case SleepCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SleepEvent is delivered to observers for every sleep timer transition:
// a tick per second, one warning, and the final fired or cancelled event.
type SleepEvent struct {
	Kind      SleepEventKind
	Remaining time.Duration
	Action    SleepAction
}

// sleepState is the engine's active sleep timer. Owned by the loop; each
// tick is armed through the scheduler and posts a generation-stamped
// event back, so a cancelled timer's late fire is ignored.
type sleepState struct {
	deadline   time.Time
	action     SleepAction
	warned     bool
	generation uint64
	cancel     func() bool
}

func (s *sleepState) remaining(now time.Time) time.Duration {
	d := s.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
