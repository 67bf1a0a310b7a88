package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funkwelle/funkwelle/pkg/graph"
)

// wavHeader builds a canonical 44-byte PCM header declaring dataLen bytes
// of 16-bit stereo audio at the given rate.
func wavHeader(rate uint32, dataLen uint32) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, 36+dataLen)
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*4)
	binary.Write(&b, binary.LittleEndian, uint16(4))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataLen)
	return b.Bytes()
}

// fakeStream serves a fixed header followed by zero-byte audio. body < 0
// streams forever; otherwise the stream ends with failErr or EOF.
type fakeStream struct {
	mu      sync.Mutex
	header  []byte
	body    int64
	failErr error
	closed  bool
	onClose func()
}

func (f *fakeStream) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.New("stream closed")
	}
	if len(f.header) > 0 {
		n := copy(p, f.header)
		f.header = f.header[n:]
		return n, nil
	}
	if f.body == 0 {
		if f.failErr != nil {
			return 0, f.failErr
		}
		return 0, io.EOF
	}
	n := len(p)
	if f.body > 0 && int64(n) > f.body {
		n = int(f.body)
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	if f.body > 0 {
		f.body -= int64(n)
	}
	return n, nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		if f.onClose != nil {
			f.onClose()
		}
	}
	return nil
}

func (f *fakeStream) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func endlessWAV() *fakeStream {
	return &fakeStream{header: wavHeader(48000, 0x7FFFF000), body: -1}
}

// scriptedOpener dispatches each Open call, by ordinal, to a script.
type scriptedOpener struct {
	mu    sync.Mutex
	calls int
	open  func(call int, onTags func(map[string]string)) (io.ReadCloser, error)
}

func (o *scriptedOpener) Open(ctx context.Context, uri string, onTags func(map[string]string)) (io.ReadCloser, error) {
	o.mu.Lock()
	o.calls++
	n := o.calls
	o.mu.Unlock()
	return o.open(n, onTags)
}

func (o *scriptedOpener) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func alwaysOpen(stream func() *fakeStream) *scriptedOpener {
	return &scriptedOpener{open: func(int, func(map[string]string)) (io.ReadCloser, error) {
		return stream(), nil
	}}
}

// fakeSink drains whatever the engine plays on a background goroutine and
// honors the speaker locking contract.
type fakeSink struct {
	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

func (s *fakeSink) Init(rate beep.SampleRate, bufferSize int) error { return nil }

func (s *fakeSink) Play(st beep.Streamer) {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		buf := make([][2]float64, 512)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s.mu.Lock()
			_, ok := st.Stream(buf)
			s.mu.Unlock()
			if !ok {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
}

func (s *fakeSink) Lock()   { s.mu.Lock() }
func (s *fakeSink) Unlock() { s.mu.Unlock() }

// immediateScheduler records requested delays and fires callbacks at once.
type immediateScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *immediateScheduler) Schedule(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	go fn()
	return func() bool { return false }
}

func (s *immediateScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// manualScheduler holds timers until the test fires them.
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	fn      func()
	stopped bool
}

func (s *manualScheduler) Schedule(d time.Duration, fn func()) func() bool {
	tm := &manualTimer{fn: fn}
	s.mu.Lock()
	s.timers = append(s.timers, tm)
	s.mu.Unlock()
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if tm.stopped {
			return false
		}
		tm.stopped = true
		return true
	}
}

// fireNext runs the oldest armed timer. It reports whether one fired.
func (s *manualScheduler) fireNext() bool {
	s.mu.Lock()
	var fire func()
	for len(s.timers) > 0 {
		tm := s.timers[0]
		s.timers = s.timers[1:]
		if !tm.stopped {
			fire = tm.fn
			break
		}
	}
	s.mu.Unlock()
	if fire == nil {
		return false
	}
	fire()
	return true
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recStop struct {
	path     string
	duration time.Duration
}

// engineEvents collects observer callbacks on channels the test can wait
// on. High-volume feeds drop when full instead of stalling the loop.
type engineEvents struct {
	states     chan StateChange
	errs       chan *Error
	buffering  chan int
	tags       chan map[string]string
	recStarted chan string
	recStopped chan recStop
	sleep      chan SleepEvent
	spectrum   chan []float64
}

func newEngineEvents() *engineEvents {
	return &engineEvents{
		states:     make(chan StateChange, 128),
		errs:       make(chan *Error, 128),
		buffering:  make(chan int, 128),
		tags:       make(chan map[string]string, 32),
		recStarted: make(chan string, 8),
		recStopped: make(chan recStop, 8),
		sleep:      make(chan SleepEvent, 128),
		spectrum:   make(chan []float64, 8),
	}
}

func (ev *engineEvents) handler() EventHandler {
	return EventHandler{
		StateChanged: func(c StateChange) { ev.states <- c },
		Error:        func(err *Error) { ev.errs <- err },
		Buffering: func(percent int) {
			select {
			case ev.buffering <- percent:
			default:
			}
		},
		TagsChanged:      func(tags map[string]string) { ev.tags <- tags },
		RecordingStarted: func(path string) { ev.recStarted <- path },
		RecordingStopped: func(path string, d time.Duration) { ev.recStopped <- recStop{path, d} },
		SleepTimer:       func(s SleepEvent) { ev.sleep <- s },
		SpectrumFrame: func(bins []float64) {
			select {
			case ev.spectrum <- bins:
			default:
			}
		},
	}
}

func waitState(t *testing.T, ev *engineEvents, want State) StateChange {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-ev.states:
			if c.To == want {
				return c
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

// waitRolling consumes the deterministic startup sequence: the optimistic
// Playing transition, Buffering while the prebuffer fills, then Playing
// once buffering completes.
func waitRolling(t *testing.T, ev *engineEvents) {
	t.Helper()
	waitState(t, ev, StatePlaying)
	waitState(t, ev, StateBuffering)
	waitState(t, ev, StatePlaying)
}

func newTestEngine(t *testing.T, opener graph.Opener, backend Backend, mutate func(*Config)) (*Engine, *engineEvents) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Graph.Prebuffer = 1024
	if mutate != nil {
		mutate(cfg)
	}
	backend.Opener = opener
	if backend.Sink == nil {
		backend.Sink = &fakeSink{}
	}
	if backend.Schedule == nil {
		backend.Schedule = (&immediateScheduler{}).Schedule
	}
	e, err := NewWithBackend(cfg, backend, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	ev := newEngineEvents()
	e.Subscribe(ev.handler())
	return e, ev
}

func TestEngineInitialState(t *testing.T) {
	e, _ := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	assert.Equal(t, StateStopped, e.State())
	assert.Equal(t, 80, e.Volume())
	assert.True(t, e.AutoReconnect())
	assert.False(t, e.IsRecording())
	assert.False(t, e.EqualizerEnabled())
	assert.Equal(t, "flat", e.Preset())

	_, ok := e.CurrentStation()
	assert.False(t, ok)
}

func TestEnginePlayRejectsBadURIs(t *testing.T) {
	opener := alwaysOpen(endlessWAV)
	e, _ := newTestEngine(t, opener, Backend{}, nil)

	err := e.Play(Station{Name: "No URI"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyURI)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CategoryConfig, pe.Category)

	err = e.Play(Station{URI: "ftp://example.com/stream"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URI scheme")

	err = e.Play(Station{URI: "://missing-scheme"})
	require.Error(t, err)

	assert.Equal(t, StateStopped, e.State(), "a rejected play leaves the state machine alone")
	assert.Zero(t, opener.Calls())
}

func TestEnginePlayReachesPlaying(t *testing.T) {
	opener := &scriptedOpener{open: func(_ int, onTags func(map[string]string)) (io.ReadCloser, error) {
		onTags(map[string]string{"organization": "Radio Paradise"})
		return endlessWAV(), nil
	}}
	e, ev := newTestEngine(t, opener, Backend{}, nil)

	require.NoError(t, e.Play(Station{Name: "Radio Paradise", URI: "http://example.com/rp.wav"}))
	waitRolling(t, ev)

	snap := e.Status()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Equal(t, "Radio Paradise", snap.Station.Name)
	assert.Equal(t, 80, snap.Volume)
	assert.Equal(t, "Radio Paradise", snap.Tags["organization"])

	st, ok := e.CurrentStation()
	assert.True(t, ok)
	assert.Equal(t, "http://example.com/rp.wav", st.URI)
}

func TestEnginePauseResume(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	require.NoError(t, e.Pause(), "pause while stopped is a no-op")
	assert.Equal(t, StateStopped, e.State())

	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)

	require.NoError(t, e.Pause())
	waitState(t, ev, StatePaused)

	require.NoError(t, e.Pause(), "second pause is a no-op")
	assert.Equal(t, StatePaused, e.State())

	require.NoError(t, e.Resume())
	waitState(t, ev, StatePlaying)

	require.NoError(t, e.Resume(), "resume while playing is a no-op")
	assert.Equal(t, StatePlaying, e.State())
}

func TestEngineStopClosesSource(t *testing.T) {
	stream := endlessWAV()
	opener := &scriptedOpener{open: func(int, func(map[string]string)) (io.ReadCloser, error) {
		return stream, nil
	}}
	e, ev := newTestEngine(t, opener, Backend{}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)

	require.NoError(t, e.Stop())
	waitState(t, ev, StateStopped)
	assert.True(t, stream.Closed())

	_, ok := e.CurrentStation()
	assert.True(t, ok, "the station is remembered after stop")
}

type sourceTracker struct {
	mu      sync.Mutex
	live    int
	maxLive int
}

func (tr *sourceTracker) stream() *fakeStream {
	tr.mu.Lock()
	tr.live++
	if tr.live > tr.maxLive {
		tr.maxLive = tr.live
	}
	tr.mu.Unlock()
	s := endlessWAV()
	s.onClose = func() {
		tr.mu.Lock()
		tr.live--
		tr.mu.Unlock()
	}
	return s
}

func (tr *sourceTracker) MaxLive() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.maxLive
}

func TestEngineNeverRunsTwoSources(t *testing.T) {
	tracker := &sourceTracker{}
	e, ev := newTestEngine(t, alwaysOpen(tracker.stream), Backend{}, nil)

	require.NoError(t, e.Play(Station{Name: "A", URI: "http://example.com/a.wav"}))
	waitRolling(t, ev)

	require.NoError(t, e.Play(Station{Name: "B", URI: "http://example.com/b.wav"}))
	waitRolling(t, ev)

	require.NoError(t, e.Play(Station{Name: "C", URI: "http://example.com/c.wav"}))
	waitRolling(t, ev)

	require.NoError(t, e.Stop())
	waitState(t, ev, StateStopped)

	assert.Equal(t, 1, tracker.MaxLive(), "switching stations must never overlap two sources")
}

func TestEngineReconnectExhaustion(t *testing.T) {
	opener := &scriptedOpener{open: func(int, func(map[string]string)) (io.ReadCloser, error) {
		return nil, errors.New("connection refused")
	}}
	sched := &immediateScheduler{}
	e, ev := newTestEngine(t, opener, Backend{Schedule: sched.Schedule}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/dead.wav"}))

	var statuses []*Error
	var terminal *Error
	deadline := time.After(10 * time.Second)
	for terminal == nil {
		select {
		case err := <-ev.errs:
			if err.Category == CategoryTerminal {
				terminal = err
			} else {
				statuses = append(statuses, err)
			}
		case <-deadline:
			t.Fatalf("no terminal error after %d status errors", len(statuses))
		}
	}

	require.Len(t, statuses, 15, "one status report per attempt")
	for i, err := range statuses {
		assert.Equal(t, CategoryTransport, err.Category, "status %d", i+1)
		assert.True(t, err.Retryable, "status %d", i+1)
	}
	assert.Equal(t, SeverityCritical, terminal.Severity)
	assert.False(t, terminal.Retryable)
	assert.ErrorContains(t, terminal, "failed to reconnect after 15 attempts")

	waitState(t, ev, StateStopped)
	assert.Equal(t, 16, opener.Calls(), "the initial attach plus fifteen retries")

	want := []time.Duration{
		50 * time.Millisecond,
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for len(want) < 15 {
		want = append(want, 10*time.Second)
	}
	assert.Equal(t, want, sched.Delays())

	select {
	case err := <-ev.errs:
		t.Fatalf("no further errors expected after the terminal report, got %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	assert.Zero(t, e.Status().ReconnectAttempts, "the spent cycle is discarded")
}

func TestEngineReconnectRecovery(t *testing.T) {
	opener := &scriptedOpener{open: func(call int, _ func(map[string]string)) (io.ReadCloser, error) {
		if call <= 2 {
			return nil, errors.New("connection reset by peer")
		}
		return endlessWAV(), nil
	}}
	sched := &immediateScheduler{}
	e, ev := newTestEngine(t, opener, Backend{Schedule: sched.Schedule}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/flaky.wav"}))

	want := []State{
		StatePlaying,   // optimistic attach
		StateBuffering, // first graph starts prebuffering
		StateError,     // first failure
		StateBuffering,
		StateError, // second failure
		StateBuffering,
		StatePlaying, // recovered
	}
	var got []State
	for len(got) < len(want) {
		select {
		case c := <-ev.states:
			got = append(got, c.To)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out, transitions so far: %v", got)
		}
	}
	assert.Equal(t, want, got)

	assert.Equal(t, 3, opener.Calls())
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 500 * time.Millisecond}, sched.Delays())

	snap := e.Status()
	assert.Equal(t, StatePlaying, snap.State)
	assert.Zero(t, snap.ReconnectAttempts, "reaching Playing ends the recovery cycle")
}

func TestEngineNonRetryableErrorStops(t *testing.T) {
	opener := &scriptedOpener{open: func(int, func(map[string]string)) (io.ReadCloser, error) {
		return nil, &graph.StatusError{Code: 403, Status: "403 Forbidden"}
	}}
	sched := &immediateScheduler{}
	e, ev := newTestEngine(t, opener, Backend{Schedule: sched.Schedule}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/forbidden.wav"}))
	waitState(t, ev, StateStopped)

	err := <-ev.errs
	assert.Equal(t, CategoryTransport, err.Category)
	assert.False(t, err.Retryable)
	assert.ErrorContains(t, err, "403")

	assert.Equal(t, 1, opener.Calls(), "permanent failures are not retried")
	assert.Empty(t, sched.Delays())
}

func TestEngineReconnectDisabled(t *testing.T) {
	opener := &scriptedOpener{open: func(int, func(map[string]string)) (io.ReadCloser, error) {
		return nil, errors.New("connection refused")
	}}
	sched := &immediateScheduler{}
	e, ev := newTestEngine(t, opener, Backend{Schedule: sched.Schedule}, func(c *Config) {
		c.Reconnect.Enabled = false
	})

	assert.False(t, e.AutoReconnect())

	require.NoError(t, e.Play(Station{URI: "http://example.com/dead.wav"}))
	waitState(t, ev, StateStopped)

	err := <-ev.errs
	assert.Equal(t, CategoryTransport, err.Category)
	assert.True(t, err.Retryable, "the cause was retryable; recovery was just disabled")

	assert.Equal(t, 1, opener.Calls())
	assert.Empty(t, sched.Delays())
}

func TestEngineTagsAccumulate(t *testing.T) {
	var (
		cbMu sync.Mutex
		cb   func(map[string]string)
	)
	opener := &scriptedOpener{open: func(_ int, onTags func(map[string]string)) (io.ReadCloser, error) {
		cbMu.Lock()
		cb = onTags
		cbMu.Unlock()
		onTags(map[string]string{"organization": "SomaFM", "genre": "ambient"})
		return endlessWAV(), nil
	}}
	e, ev := newTestEngine(t, opener, Backend{}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/soma.wav"}))
	waitRolling(t, ev)

	cbMu.Lock()
	send := cb
	cbMu.Unlock()
	require.NotNil(t, send)
	send(map[string]string{"artist": "Boards of Canada", "title": "Dayvan Cowboy"})

	deadline := time.After(5 * time.Second)
	for {
		var tags map[string]string
		select {
		case tags = <-ev.tags:
		case <-deadline:
			t.Fatal("inline tags never arrived")
		}
		if tags["title"] == "" {
			continue
		}
		assert.Equal(t, "SomaFM", tags["organization"], "connection tags are retained")
		assert.Equal(t, "Dayvan Cowboy", tags["title"])
		break
	}

	assert.Equal(t, "Boards of Canada", e.Tags()["artist"])
}

func TestEngineVolumeClamping(t *testing.T) {
	e, _ := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	assert.Equal(t, 100, e.SetVolume(150))
	assert.Equal(t, 100, e.Volume())
	assert.Equal(t, 0, e.SetVolume(-5))
	assert.Equal(t, 0, e.Volume())
	assert.Equal(t, 65, e.SetVolume(65))
	assert.Equal(t, 65, e.Volume())
}

func TestEngineRecordingLifecycle(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	_, err := e.StartRecording(filepath.Join(t.TempDir(), "early.wav"))
	assert.ErrorIs(t, err, ErrNotPlaying)

	require.NoError(t, e.Play(Station{Name: "KEXP", URI: "http://example.com/kexp.wav"}))
	waitRolling(t, ev)

	path := filepath.Join(t.TempDir(), "take.wav")
	resolved, err := e.StartRecording(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.True(t, e.IsRecording())

	select {
	case started := <-ev.recStarted:
		assert.Equal(t, path, started)
	case <-time.After(5 * time.Second):
		t.Fatal("recording started event missing")
	}

	snap := e.Status()
	assert.True(t, snap.Recording)
	assert.Equal(t, path, snap.RecordingPath)

	_, err = e.StartRecording(filepath.Join(t.TempDir(), "second.wav"))
	assert.ErrorIs(t, err, ErrRecordingActive)

	// Let some audio flow into the encoder.
	time.Sleep(300 * time.Millisecond)

	stoppedPath, duration, err := e.StopRecording()
	require.NoError(t, err)
	assert.Equal(t, path, stoppedPath)
	assert.Greater(t, duration, time.Duration(0))
	assert.False(t, e.IsRecording())

	select {
	case stopped := <-ev.recStopped:
		assert.Equal(t, path, stopped.path)
	case <-time.After(5 * time.Second):
		t.Fatal("recording stopped event missing")
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44), "the file holds audio past the header")

	_, _, err = e.StopRecording()
	assert.ErrorIs(t, err, ErrNoRecording)
}

func TestEngineStopFinalizesRecording(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)

	path := filepath.Join(t.TempDir(), "cut-short.wav")
	_, err := e.StartRecording(path)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, e.Stop())
	waitState(t, ev, StateStopped)

	select {
	case stopped := <-ev.recStopped:
		assert.Equal(t, path, stopped.path)
	case <-time.After(5 * time.Second):
		t.Fatal("stop must finalize the recording session")
	}
	assert.False(t, e.IsRecording())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(44))
}

func TestEngineSpectrumBranch(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)

	e.SetSpectrumEnabled(true)
	assert.True(t, e.SpectrumEnabled())

	select {
	case bins := <-ev.spectrum:
		assert.Len(t, bins, e.cfg.Spectrum.Bands)
		for _, db := range bins {
			assert.LessOrEqual(t, db, 0.0)
			assert.GreaterOrEqual(t, db, e.cfg.Spectrum.FloorDB)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no spectrum frames arrived")
	}

	e.SetSpectrumEnabled(false)
	assert.False(t, e.SpectrumEnabled())
}

func TestEngineEqualizerControl(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	require.NoError(t, e.ApplyPreset("rock"))
	assert.Equal(t, "rock", e.Preset())

	clamped, err := e.SetBand(3, -99)
	require.NoError(t, err)
	assert.Equal(t, -24.0, clamped)
	assert.Equal(t, "custom", e.Preset(), "editing a band leaves the preset")

	_, err = e.SetBand(99, 0)
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CategoryEqualizer, pe.Category)

	err = e.ApplyPreset("bogus")
	require.Error(t, err)

	e.SetEqualizerEnabled(true)
	assert.True(t, e.EqualizerEnabled())

	// The stored curve applies to a live graph without disturbing playback.
	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)
	gain, err := e.Band(3)
	require.NoError(t, err)
	assert.Equal(t, -24.0, gain)
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	err := e.Play(Station{URI: "http://example.com/s.wav"})
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestEngineUnsubscribe(t *testing.T) {
	e, ev := newTestEngine(t, alwaysOpen(endlessWAV), Backend{}, nil)

	var (
		mu    sync.Mutex
		count int
	)
	id := e.Subscribe(EventHandler{StateChanged: func(StateChange) {
		mu.Lock()
		count++
		mu.Unlock()
	}})
	e.Unsubscribe(id)

	require.NoError(t, e.Play(Station{URI: "http://example.com/s.wav"}))
	waitRolling(t, ev)
	require.NoError(t, e.Stop())
	waitState(t, ev, StateStopped)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count, "an unsubscribed handler hears nothing")
}
