package player

import (
	"fmt"
	"time"

	"github.com/funkwelle/funkwelle/pkg/graph"
	"github.com/funkwelle/funkwelle/pkg/spectrum"
)

// DefaultUserAgent identifies the player to stream servers.
const DefaultUserAgent = "funkwelle/1.0"

// Config carries the engine's tunable parameters. Zero values are filled
// with defaults by New.
type Config struct {
	Graph     graph.Config
	Reconnect ReconnectPolicy
	Recording RecordingConfig
	Spectrum  spectrum.Config

	// InitialVolume is the playback volume percent applied at construction.
	InitialVolume int

	// UserAgent is sent with stream requests by the default opener.
	UserAgent string

	// FlushTimeout bounds how long StopRecording waits for the recording
	// branch to drain and finalize. The branch acknowledges the flush
	// itself; the timeout is only a safety net for stuck encoders.
	FlushTimeout time.Duration

	// CommandQueue and BusQueue size the loop's inbound channels.
	CommandQueue int
	BusQueue     int
}

// RecordingConfig holds encoder parameters shared by every recording
// session.
type RecordingConfig struct {
	// Bitrate in kbit/s, applied by the lossy encoders.
	Bitrate int
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Graph:         graph.DefaultConfig(),
		Reconnect:     DefaultReconnectPolicy(),
		Recording:     RecordingConfig{Bitrate: 320},
		Spectrum:      spectrum.DefaultConfig(),
		InitialVolume: 80,
		UserAgent:     DefaultUserAgent,
		FlushTimeout:  5 * time.Second,
		CommandQueue:  16,
		BusQueue:      64,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.InitialVolume < 0 || c.InitialVolume > 100 {
		return fmt.Errorf("initial volume must be 0..100, got %d", c.InitialVolume)
	}
	if c.Reconnect.MaxAttempts <= 0 {
		return fmt.Errorf("reconnect max attempts must be positive, got %d", c.Reconnect.MaxAttempts)
	}
	if c.Reconnect.FirstDelay < 0 {
		return fmt.Errorf("reconnect first delay must not be negative, got %s", c.Reconnect.FirstDelay)
	}
	if c.Reconnect.BaseDelay <= 0 {
		return fmt.Errorf("reconnect base delay must be positive, got %s", c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect max delay %s is below base delay %s", c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}
	if c.Recording.Bitrate <= 0 {
		return fmt.Errorf("recording bitrate must be positive, got %d", c.Recording.Bitrate)
	}
	if c.FlushTimeout <= 0 {
		return fmt.Errorf("flush timeout must be positive, got %s", c.FlushTimeout)
	}
	if c.CommandQueue <= 0 {
		return fmt.Errorf("command queue size must be positive, got %d", c.CommandQueue)
	}
	if c.BusQueue <= 0 {
		return fmt.Errorf("bus queue size must be positive, got %d", c.BusQueue)
	}
	return nil
}

// Backend bundles the engine's replaceable externals: how streams are
// opened, where audio goes, how timers are scheduled and how time is read.
// Tests run the full engine against fakes by swapping these.
type Backend struct {
	Opener   graph.Opener
	Sink     graph.Sink
	Schedule Scheduler
	Now      func() time.Time
}

// DefaultBackend returns the production backend: HTTP/ICY opener, speaker
// sink and real timers.
func DefaultBackend(userAgent string) Backend {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return Backend{
		Opener:   graph.NewURIOpener(userAgent),
		Sink:     graph.NewSpeakerSink(),
		Schedule: defaultScheduler,
		Now:      time.Now,
	}
}

func (b Backend) withDefaults(userAgent string) Backend {
	def := DefaultBackend(userAgent)
	if b.Opener == nil {
		b.Opener = def.Opener
	}
	if b.Sink == nil {
		b.Sink = def.Sink
	}
	if b.Schedule == nil {
		b.Schedule = def.Schedule
	}
	if b.Now == nil {
		b.Now = def.Now
	}
	return b
}
