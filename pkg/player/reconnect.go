package player

import "time"

// Reconnect defaults. The first retry fires almost immediately to mask
// brief hiccups (Wi-Fi roaming, stream resets); subsequent attempts back
// off exponentially from BaseDelay up to MaxDelay.
const (
	DefaultMaxAttempts = 15
	DefaultFirstDelay  = 50 * time.Millisecond
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
)

// ReconnectPolicy describes the retry budget and backoff schedule applied
// after transport-level failures.
type ReconnectPolicy struct {
	Enabled     bool
	MaxAttempts int
	FirstDelay  time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy returns the tuned default schedule:
// 50ms, 500ms, 1s, 2s, 4s, 8s, then 10s for every further attempt,
// with a budget of 15 attempts.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		Enabled:     true,
		MaxAttempts: DefaultMaxAttempts,
		FirstDelay:  DefaultFirstDelay,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Delay returns the wait before reconnect attempt n (1-based).
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	switch {
	case attempt <= 1:
		return p.FirstDelay
	case attempt == 2:
		return p.BaseDelay
	default:
		d := p.BaseDelay << uint(attempt-2)
		if d <= 0 || d > p.MaxDelay {
			return p.MaxDelay
		}
		return d
	}
}

// Exhausted reports whether the budget forbids another attempt after n
// consecutive failures.
func (p ReconnectPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// Scheduler defers a callback for the engine's reconnect timers. The
// returned stop function is best-effort: a callback that fires after
// cancellation is discarded on the loop by its generation stamp.
type Scheduler func(d time.Duration, fn func()) (stop func() bool)

func defaultScheduler(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// reconnectState tracks one in-flight recovery cycle. It is created lazily
// on the first transport error and discarded on stop() or a successful
// reattach. The generation stamp ties a scheduled timer to the cycle that
// armed it; stale fires are ignored.
type reconnectState struct {
	attempts   int
	generation uint64
	cancel     func() bool
}

func (r *reconnectState) cancelPending() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
