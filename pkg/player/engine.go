package player

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/funkwelle/funkwelle/pkg/equalizer"
	"github.com/funkwelle/funkwelle/pkg/graph"
	"github.com/funkwelle/funkwelle/pkg/recorder"
)

// Branch queue depths, in frame chunks.
const (
	recordQueueDepth   = 256
	spectrumQueueDepth = 64
)

// command is one public operation marshalled onto the engine loop. The
// closure captures its arguments and results; done is closed after it ran.
type command struct {
	name string
	run  func()
	done chan struct{}
}

// busMessage is a graph notification stamped with the generation of the
// graph that produced it. Messages from torn down graphs are dropped on
// the loop instead of corrupting the state machine.
type busMessage struct {
	generation uint64
	msg        graph.Message
}

// loopEventKind discriminates internal loop events.
type loopEventKind int

const (
	eventReconnectFired loopEventKind = iota
	eventSleepTick
	eventRecordingDone
	eventSpectrumFrame
)

// loopEvent carries timer fires and branch acknowledgements back onto the
// loop. The generation field ties an event to the cycle that armed it.
type loopEvent struct {
	kind       loopEventKind
	generation uint64
	path       string
	duration   time.Duration
	err        error
	frame      []float64
}

// recordingSession pairs a recorder session with the fan-out branch
// feeding it.
type recordingSession struct {
	sess   *recorder.Session
	branch *graph.Branch
}

// spectrumSession tracks the analyzer branch attached to the current
// graph.
type spectrumSession struct {
	branch *graph.Branch
}

// Snapshot is a consistent view of the engine state, taken on the loop.
type Snapshot struct {
	State             State
	Station           Station
	Tags              map[string]string
	Volume            int
	AutoReconnect     bool
	ReconnectAttempts int
	Recording         bool
	RecordingPath     string
	EqualizerEnabled  bool
	Preset            string
	SpectrumEnabled   bool
	SleepActive       bool
	SleepRemaining    time.Duration
	SleepAction       SleepAction
}

// Engine is the playback orchestrator. It owns the audio graph, the
// playback state machine, the reconnect cycle, the recording session and
// the observer registry. All state lives on a single loop goroutine:
// public methods marshal commands onto it, the graph reports through a
// generation-stamped bus and timers post events back, so transitions are
// strictly serialized and a scheduled reconnect can never race a stop.
type Engine struct {
	cfg     *Config
	backend Backend
	log     zerolog.Logger

	cmds   chan command
	bus    chan busMessage
	events chan loopEvent

	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	// Loop-owned state.
	state         State
	station       Station
	tags          map[string]string
	volume        int
	autoReconnect bool

	eq *equalizer.Control

	graph    *graph.Graph
	graphGen uint64
	gen      uint64

	reconnect *reconnectState
	recording *recordingSession

	sleep    *sleepState
	sleepGen uint64

	spectrumOn bool
	spectrum   *spectrumSession

	observers observers
}

// New creates an engine with the production backend and starts its loop.
func New(cfg *Config, log zerolog.Logger) (*Engine, error) {
	return NewWithBackend(cfg, Backend{}, log)
}

// NewWithBackend creates an engine with explicit backend components.
// Zero backend fields fall back to the production implementations.
func NewWithBackend(cfg *Config, backend Backend, log zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Engine{
		cfg:           cfg,
		backend:       backend.withDefaults(cfg.UserAgent),
		log:           log.With().Str("component", "engine").Logger(),
		cmds:          make(chan command, cfg.CommandQueue),
		bus:           make(chan busMessage, cfg.BusQueue),
		events:        make(chan loopEvent, cfg.BusQueue),
		done:          make(chan struct{}),
		closing:       make(chan struct{}),
		state:         StateStopped,
		volume:        cfg.InitialVolume,
		autoReconnect: cfg.Reconnect.Enabled,
		eq:            equalizer.NewControl(),
	}
	e.eq.Bind(func(gains [equalizer.BandCount]float64) {
		if e.graph != nil {
			e.graph.SetEqualizerGains(gains)
		}
	})

	go e.run()

	e.log.Info().
		Int("volume", e.volume).
		Bool("auto_reconnect", e.autoReconnect).
		Msg("Playback engine created")
	return e, nil
}

// run is the engine loop. Every state transition happens here.
func (e *Engine) run() {
	defer close(e.done)
	e.log.Debug().Msg("Engine loop started")
	for {
		select {
		case <-e.closing:
			e.log.Debug().Msg("Engine loop stopped")
			return
		case cmd := <-e.cmds:
			e.log.Debug().Str("command", cmd.name).Msg("Handling command")
			cmd.run()
			close(cmd.done)
		case m := <-e.bus:
			e.handleBusMessage(m)
		case ev := <-e.events:
			e.handleLoopEvent(ev)
		}
	}
}

// do marshals fn onto the loop and waits for it to run.
func (e *Engine) do(name string, fn func()) error {
	cmd := command{name: name, run: fn, done: make(chan struct{})}
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ErrEngineClosed
	}
	select {
	case <-cmd.done:
		return nil
	case <-e.done:
		select {
		case <-cmd.done:
			return nil
		default:
			return ErrEngineClosed
		}
	}
}

// postEvent hands a timer fire or branch acknowledgement to the loop.
// Used by helper goroutines; blocks only while the event queue is full.
func (e *Engine) postEvent(ev loopEvent) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// Close stops playback, releases the graph and terminates the loop.
// Further calls on a closed engine return ErrEngineClosed.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		_ = e.do("close", func() {
			e.handleStop("engine closed")
			e.cancelSleep(false)
		})
		close(e.closing)
		<-e.done
		e.log.Info().Msg("Playback engine closed")
	})
	return nil
}

// Play tears down any prior source and starts playback of the station's
// URI. An empty or malformed URI is rejected synchronously with no state
// change.
func (e *Engine) Play(station Station) error {
	uri := strings.TrimSpace(station.URI)
	if uri == "" {
		return NewError(ErrEmptyURI, CategoryConfig, SeverityMedium)
	}
	if err := validateURI(uri); err != nil {
		return NewError(err, CategoryConfig, SeverityMedium)
	}
	station.URI = uri

	var playErr error
	if err := e.do("play", func() { playErr = e.handlePlay(station) }); err != nil {
		return err
	}
	return playErr
}

// Pause suspends the playback branch. A no-op unless playing.
func (e *Engine) Pause() error {
	return e.do("pause", func() { e.handlePause() })
}

// Resume continues paused playback. A no-op unless paused.
func (e *Engine) Resume() error {
	return e.do("resume", func() { e.handleResume() })
}

// Stop drives the engine to Stopped: it cancels a pending reconnect,
// finalizes any recording session and tears the graph down.
func (e *Engine) Stop() error {
	return e.do("stop", func() { e.handleStop("stop requested") })
}

// State returns the current playback state.
func (e *Engine) State() State {
	st := StateStopped
	_ = e.do("state", func() { st = e.state })
	return st
}

// CurrentStation returns the station of the active playback session.
func (e *Engine) CurrentStation() (Station, bool) {
	var (
		station Station
		ok      bool
	)
	_ = e.do("current_station", func() {
		station = e.station
		ok = e.station.URI != ""
	})
	return station, ok
}

// Tags returns a copy of the stream tags seen so far in this session.
func (e *Engine) Tags() map[string]string {
	var tags map[string]string
	_ = e.do("tags", func() { tags = copyTags(e.tags) })
	return tags
}

// Volume returns the playback volume percentage.
func (e *Engine) Volume() int {
	var v int
	_ = e.do("volume", func() { v = e.volume })
	return v
}

// SetVolume applies a playback volume percentage, clamped to 0..100, and
// returns the applied value.
func (e *Engine) SetVolume(percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	_ = e.do("set_volume", func() {
		e.volume = percent
		if e.graph != nil {
			e.graph.SetVolume(percent)
		}
	})
	return percent
}

// AutoReconnect reports whether transport errors trigger the recovery
// cycle.
func (e *Engine) AutoReconnect() bool {
	var on bool
	_ = e.do("auto_reconnect", func() { on = e.autoReconnect })
	return on
}

// SetAutoReconnect toggles the recovery cycle. Disabling does not cancel
// an already scheduled attempt; use Stop for that.
func (e *Engine) SetAutoReconnect(on bool) {
	_ = e.do("set_auto_reconnect", func() { e.autoReconnect = on })
}

// Subscribe registers observer callbacks and returns a registration id
// for Unsubscribe.
func (e *Engine) Subscribe(h EventHandler) int {
	var id int
	_ = e.do("subscribe", func() { id = e.observers.add(h) })
	return id
}

// Unsubscribe removes a registration.
func (e *Engine) Unsubscribe(id int) {
	_ = e.do("unsubscribe", func() { e.observers.remove(id) })
}

// StartRecording attaches a recording branch writing to path and returns
// the resolved output path. Valid only while playing with no active
// session; the playback branch is never interrupted.
func (e *Engine) StartRecording(path string) (string, error) {
	var (
		resolved string
		opErr    error
	)
	if err := e.do("start_recording", func() { resolved, opErr = e.handleStartRecording(path) }); err != nil {
		return "", err
	}
	return resolved, opErr
}

// StopRecording detaches the recording branch, waits for the encoder to
// flush and returns the output path with the realized duration. The wait
// is bounded by the configured flush timeout.
func (e *Engine) StopRecording() (string, time.Duration, error) {
	var (
		rec   *recordingSession
		opErr error
	)
	if err := e.do("stop_recording", func() {
		if e.recording == nil {
			opErr = NewError(ErrNoRecording, CategoryRecording, SeverityLow)
			return
		}
		rec = e.finishRecording()
	}); err != nil {
		return "", 0, err
	}
	if opErr != nil {
		return "", 0, opErr
	}

	sess := rec.sess
	select {
	case <-sess.Done():
		return sess.Path(), sess.Duration(), sess.Err()
	case <-time.After(e.cfg.FlushTimeout):
		return sess.Path(), 0, fmt.Errorf("recording flush timed out after %s", e.cfg.FlushTimeout)
	}
}

// IsRecording reports whether a recording session is active.
func (e *Engine) IsRecording() bool {
	var active bool
	_ = e.do("is_recording", func() { active = e.recording != nil })
	return active
}

// SetBand sets one equalizer band gain in dB, clamped to the supported
// range, and returns the stored value. Changing a band while a built-in
// preset is active switches the preset to custom.
func (e *Engine) SetBand(index int, gain float64) (float64, error) {
	var (
		clamped float64
		opErr   error
	)
	if err := e.do("set_band", func() { clamped, opErr = e.eq.SetBand(index, gain) }); err != nil {
		return 0, err
	}
	if opErr != nil {
		return 0, NewError(opErr, CategoryEqualizer, SeverityLow)
	}
	return clamped, nil
}

// Band returns the stored gain of one equalizer band.
func (e *Engine) Band(index int) (float64, error) {
	var (
		gain  float64
		opErr error
	)
	if err := e.do("band", func() { gain, opErr = e.eq.Band(index) }); err != nil {
		return 0, err
	}
	if opErr != nil {
		return 0, NewError(opErr, CategoryEqualizer, SeverityLow)
	}
	return gain, nil
}

// Gains returns the stored equalizer curve.
func (e *Engine) Gains() [equalizer.BandCount]float64 {
	var gains [equalizer.BandCount]float64
	_ = e.do("gains", func() { gains = e.eq.Gains() })
	return gains
}

// Preset returns the active equalizer preset name.
func (e *Engine) Preset() string {
	var preset string
	_ = e.do("preset", func() { preset = e.eq.Preset() })
	return preset
}

// ApplyPreset activates a built-in preset curve or the stored custom
// curve.
func (e *Engine) ApplyPreset(name string) error {
	var opErr error
	if err := e.do("apply_preset", func() { opErr = e.eq.ApplyPreset(name) }); err != nil {
		return err
	}
	if opErr != nil {
		return NewError(opErr, CategoryEqualizer, SeverityLow)
	}
	return nil
}

// EqualizerEnabled reports whether the equalizer shapes the live audio.
func (e *Engine) EqualizerEnabled() bool {
	var on bool
	_ = e.do("equalizer_enabled", func() { on = e.eq.Enabled() })
	return on
}

// SetEqualizerEnabled toggles the equalizer. Disabling flattens the live
// gains without discarding the stored curve.
func (e *Engine) SetEqualizerEnabled(on bool) {
	_ = e.do("set_equalizer_enabled", func() {
		e.eq.SetEnabled(on)
		if e.graph != nil {
			e.graph.SetEqualizerGains(e.eq.EffectiveGains())
		}
	})
}

// LoadEqualizer restores persisted equalizer state.
func (e *Engine) LoadEqualizer(enabled bool, preset string, gains [equalizer.BandCount]float64) {
	_ = e.do("load_equalizer", func() { e.eq.Load(enabled, preset, gains) })
}

// StartSleepTimer arms the sleep timer, replacing any armed one, and
// returns the clamped duration.
func (e *Engine) StartSleepTimer(d time.Duration, action SleepAction) time.Duration {
	var applied time.Duration
	_ = e.do("start_sleep_timer", func() { applied = e.handleStartSleep(d, action) })
	return applied
}

// CancelSleepTimer disarms the sleep timer. It reports whether a timer
// was armed.
func (e *Engine) CancelSleepTimer() bool {
	var cancelled bool
	_ = e.do("cancel_sleep_timer", func() { cancelled = e.cancelSleep(true) })
	return cancelled
}

// SleepRemaining returns the remaining sleep timer duration.
func (e *Engine) SleepRemaining() (time.Duration, SleepAction, bool) {
	var (
		remaining time.Duration
		action    SleepAction
		active    bool
	)
	_ = e.do("sleep_remaining", func() {
		if e.sleep != nil {
			remaining = e.sleep.remaining(e.backend.Now())
			action = e.sleep.action
			active = true
		}
	})
	return remaining, action, active
}

// SetSpectrumEnabled toggles the analyzer branch. The branch attaches as
// soon as a stream is rolling and reattaches after reconnects.
func (e *Engine) SetSpectrumEnabled(on bool) {
	_ = e.do("set_spectrum_enabled", func() {
		e.spectrumOn = on
		if on {
			if e.spectrum == nil {
				e.attachSpectrumBranch()
			}
			return
		}
		e.detachSpectrumBranch()
	})
}

// SpectrumEnabled reports whether the analyzer branch is requested.
func (e *Engine) SpectrumEnabled() bool {
	var on bool
	_ = e.do("spectrum_enabled", func() { on = e.spectrumOn })
	return on
}

// Status returns a consistent snapshot of the engine state.
func (e *Engine) Status() Snapshot {
	var snap Snapshot
	_ = e.do("status", func() {
		snap = Snapshot{
			State:            e.state,
			Station:          e.station,
			Tags:             copyTags(e.tags),
			Volume:           e.volume,
			AutoReconnect:    e.autoReconnect,
			EqualizerEnabled: e.eq.Enabled(),
			Preset:           e.eq.Preset(),
			SpectrumEnabled:  e.spectrumOn,
		}
		if e.reconnect != nil {
			snap.ReconnectAttempts = e.reconnect.attempts
		}
		if e.recording != nil {
			snap.Recording = true
			snap.RecordingPath = e.recording.sess.Path()
		}
		if e.sleep != nil {
			snap.SleepActive = true
			snap.SleepRemaining = e.sleep.remaining(e.backend.Now())
			snap.SleepAction = e.sleep.action
		}
	})
	return snap
}

func validateURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid stream URI %q: %w", uri, err)
	}
	switch u.Scheme {
	case "http", "https", "file", "":
		return nil
	default:
		return fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
