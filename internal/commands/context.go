package commands

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/funkwelle/funkwelle/pkg/player"
	"github.com/funkwelle/funkwelle/pkg/playlist"
	"github.com/funkwelle/funkwelle/pkg/resolve"
	"github.com/funkwelle/funkwelle/pkg/settings"
	"github.com/funkwelle/funkwelle/pkg/station"
)

// Context carries the shared collaborators every shell command needs.
// Commands run on the readline goroutine while engine event callbacks
// run on the engine loop, so the fields both sides touch (loaded
// stations, now playing, latest spectrum frame) sit behind the mutex.
type Context struct {
	Engine       *player.Engine
	Store        *settings.Store
	Settings     *settings.Settings
	Resolver     *resolve.Resolver
	History      *station.History
	Favorites    *station.Favorites
	RecordingDir string
	UserAgent    string
	FFmpegPath   string
	Out          io.Writer
	Log          zerolog.Logger

	mu         sync.Mutex
	stations   []playlist.Station
	nowPlaying player.Station
	frame      []float64
}

// Printf writes to the shell output.
func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

// SaveSettings persists the in-memory settings document, reporting
// failures on the shell output.
func (c *Context) SaveSettings() {
	if err := c.Store.Save(*c.Settings); err != nil {
		c.Printf("Failed to save settings: %v\n", err)
	}
}

// SetStations replaces the loaded playlist.
func (c *Context) SetStations(stations []playlist.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stations = stations
}

// Stations returns the loaded playlist.
func (c *Context) Stations() []playlist.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stations
}

// SetNowPlaying records the station the shell most recently started.
// Event callbacks read it instead of calling back into the engine.
func (c *Context) SetNowPlaying(st player.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowPlaying = st
}

// NowPlaying returns the station the shell most recently started.
func (c *Context) NowPlaying() player.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowPlaying
}

// SetSpectrumFrame stores the most recent analyzer frame.
func (c *Context) SetSpectrumFrame(bins []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = bins
}

// SpectrumFrame returns the most recent analyzer frame, or nil.
func (c *Context) SpectrumFrame() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// stationNameFromURL derives a display name from a stream URL host.
func stationNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
