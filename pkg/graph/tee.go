package graph

import (
	"sync"
	"sync/atomic"

	"github.com/faiface/beep"
)

// Tee duplicates the upstream streamer into independently consumed
// branches. The playback branch is the puller: every Stream call copies
// the freshly pulled frame into each attached branch queue. A branch whose
// queue is full loses the frame rather than stalling playback, which is
// what keeps recording and analysis failures from ever reaching the
// audible path.
type Tee struct {
	src beep.Streamer

	mu       sync.Mutex
	branches []*Branch
}

// NewTee wraps the upstream streamer.
func NewTee(src beep.Streamer) *Tee {
	return &Tee{src: src}
}

func (t *Tee) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.src.Stream(samples)
	if n > 0 {
		t.mu.Lock()
		for _, b := range t.branches {
			b.offer(samples[:n])
		}
		t.mu.Unlock()
	}
	return n, ok
}

func (t *Tee) Err() error {
	return t.src.Err()
}

// Attach adds a branch with the given queue capacity (in frames) and
// returns it. Safe to call while the sink is pulling.
func (t *Tee) Attach(capacity int) *Branch {
	b := &Branch{ch: make(chan [][2]float64, capacity)}
	t.mu.Lock()
	t.branches = append(t.branches, b)
	t.mu.Unlock()
	return b
}

// Detach removes a branch and closes its queue, which the consumer
// observes as end-of-stream. Detaching an unknown or already detached
// branch is a no-op.
func (t *Tee) Detach(b *Branch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.branches {
		if cur == b {
			t.branches = append(t.branches[:i], t.branches[i+1:]...)
			close(b.ch)
			b.closed = true
			return
		}
	}
}

// DetachAll removes and closes every branch. Used during teardown.
func (t *Tee) DetachAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range t.branches {
		close(b.ch)
		b.closed = true
	}
	t.branches = nil
}

// Branch is one consumer queue fed by the tee. The consumer drains Frames
// until it is closed, then finalizes and acknowledges.
type Branch struct {
	ch      chan [][2]float64
	closed  bool
	dropped atomic.Int64
}

// offer copies the frame into the branch queue, dropping it when the
// consumer is behind. Called with the tee mutex held.
func (b *Branch) offer(frame [][2]float64) {
	if b.closed {
		return
	}
	cp := make([][2]float64, len(frame))
	copy(cp, frame)
	select {
	case b.ch <- cp:
	default:
		b.dropped.Add(1)
	}
}

// Frames is the consumer side of the branch queue.
func (b *Branch) Frames() <-chan [][2]float64 {
	return b.ch
}

// Dropped reports how many frames were lost to a slow consumer.
func (b *Branch) Dropped() int64 {
	return b.dropped.Load()
}
