package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/rs/zerolog"

	"github.com/funkwelle/funkwelle/pkg/equalizer"
)

// Graph state errors
var (
	ErrSourceAttached = errors.New("a source is already attached")
	ErrNotStarted     = errors.New("no started source")
)

// Construction defaults.
const (
	DefaultSinkRate   = beep.SampleRate(48000)
	DefaultSinkBuffer = 100 * time.Millisecond
	DefaultPrebuffer  = 32 * 1024

	resampleQuality  = 4
	pumpChunkSamples = 512
	playQueueSamples = 8192
)

// Volume mapping. Percent 0..100 maps onto an exponential gain curve so
// perceived loudness tracks the control linearly; 0 mutes outright.
const (
	minVolumeExponent   = -10.0
	volumeCurveExponent = 0.5
)

// Config carries the tunable parameters of a graph.
type Config struct {
	SinkRate   beep.SampleRate
	SinkBuffer time.Duration
	Prebuffer  int
	FFmpegPath string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SinkRate:   DefaultSinkRate,
		SinkBuffer: DefaultSinkBuffer,
		Prebuffer:  DefaultPrebuffer,
		FFmpegPath: "ffmpeg",
	}
}

// Graph builds and owns one processing chain per attached source:
// decode, convert/resample, equalize, fan-out, playback branch. Branches
// for recording and analysis attach to the fan-out at runtime.
//
// Control methods are invoked from the engine loop. Data flows elsewhere:
// connection, probing and decoding run on a per-source pump goroutine, and
// the playback branch is drained by the sink's audio callback. The graph
// reports everything asynchronous through its Bus.
type Graph struct {
	cfg    Config
	opener Opener
	sink   Sink
	post   Bus
	log    zerolog.Logger

	mu      sync.Mutex
	session *session
}

// session is the state of one source attach. The source is owned
// exclusively by the graph from Start to Teardown.
type session struct {
	uri    string
	ctx    context.Context
	cancel context.CancelFunc

	flags   linkFlags
	src     io.ReadCloser
	tap     *errTap
	decoder beep.StreamCloser
	eq      *equalizer.Streamer
	tee     *Tee
	volume  *effects.Volume
	ctrl    *beep.Ctrl

	sampleCh chan [2]float64

	// Parameters applied before the chain exists are remembered here and
	// folded in at link time.
	gains         [equalizer.BandCount]float64
	volumePercent int
	wantPaused    bool

	started bool
	closed  bool
}

// New creates a graph. Opener, sink and bus are injected so tests can run
// the whole graph against fakes.
func New(cfg Config, opener Opener, sink Sink, post Bus, log zerolog.Logger) *Graph {
	if cfg.SinkRate == 0 {
		cfg.SinkRate = DefaultSinkRate
	}
	if cfg.SinkBuffer == 0 {
		cfg.SinkBuffer = DefaultSinkBuffer
	}
	if cfg.Prebuffer == 0 {
		cfg.Prebuffer = DefaultPrebuffer
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Graph{
		cfg:    cfg,
		opener: opener,
		sink:   sink,
		post:   post,
		log:    log.With().Str("component", "graph").Logger(),
	}
}

// Active reports whether a source is currently attached.
func (g *Graph) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session != nil
}

// Start attaches a source and begins connecting on the pump goroutine.
// Exactly one source may be attached at a time; the owner tears the prior
// graph down first. The initial equalizer curve and volume are applied to
// the new chain before the sink pulls it.
func (g *Graph) Start(uri string, gains [equalizer.BandCount]float64, volumePercent int, paused bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil {
		return ErrSourceAttached
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		uri:           uri,
		ctx:           ctx,
		cancel:        cancel,
		sampleCh:      make(chan [2]float64, playQueueSamples),
		gains:         gains,
		volumePercent: volumePercent,
		wantPaused:    paused,
	}
	g.session = s
	go g.connect(s)
	return nil
}

// Teardown drives the graph idle: it cancels the pump, closes the source,
// clears the sink and releases every fan-out branch. Idempotent; after it
// returns a new Start sees a clean graph.
func (g *Graph) Teardown() {
	g.mu.Lock()
	s := g.session
	g.session = nil
	if s != nil {
		s.closed = true
	}
	g.mu.Unlock()
	if s == nil {
		return
	}

	s.cancel()
	if s.src != nil {
		s.src.Close()
	}
	g.sink.Clear()
	if s.tee != nil {
		s.tee.DetachAll()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	g.log.Debug().Str("uri", s.uri).Msg("Graph torn down")
}

// SetPaused toggles the playback branch. Before the chain is linked the
// value is remembered and folded in at link time.
func (g *Graph) SetPaused(paused bool) {
	g.mu.Lock()
	s := g.session
	var ctrl *beep.Ctrl
	if s != nil {
		s.wantPaused = paused
		ctrl = s.ctrl
	}
	g.mu.Unlock()
	if ctrl == nil {
		return
	}
	g.sink.Lock()
	ctrl.Paused = paused
	g.sink.Unlock()
}

// SetVolume applies a volume percentage to the playback branch.
func (g *Graph) SetVolume(percent int) {
	g.mu.Lock()
	s := g.session
	var vol *effects.Volume
	if s != nil {
		s.volumePercent = percent
		vol = s.volume
	}
	g.mu.Unlock()
	if vol == nil {
		return
	}
	g.sink.Lock()
	vol.Volume = percentToExponent(float64(percent))
	vol.Silent = percent == 0
	g.sink.Unlock()
}

// SetEqualizerGains applies a full gain curve to the live node.
func (g *Graph) SetEqualizerGains(gains [equalizer.BandCount]float64) {
	g.mu.Lock()
	s := g.session
	var eq *equalizer.Streamer
	if s != nil {
		s.gains = gains
		eq = s.eq
	}
	g.mu.Unlock()
	if eq == nil {
		return
	}
	g.sink.Lock()
	eq.SetGains(gains)
	g.sink.Unlock()
}

// AttachBranch adds a fan-out branch with the given queue capacity in
// frames. It fails until the audio pad is linked and the chain is rolling.
func (g *Graph) AttachBranch(capacity int) (*Branch, beep.Format, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || !g.session.started {
		return nil, beep.Format{}, ErrNotStarted
	}
	b := g.session.tee.Attach(capacity)
	format := beep.Format{SampleRate: g.cfg.SinkRate, NumChannels: 2, Precision: 2}
	return b, format, nil
}

// DetachBranch closes a branch queue. The consumer observes end-of-stream
// on its frame channel and finalizes.
func (g *Graph) DetachBranch(b *Branch) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != nil && g.session.tee != nil {
		g.session.tee.Detach(b)
	}
}

// connect runs on the pump goroutine: open the source, prebuffer, sniff
// the media kind and resolve the discovered pads.
func (g *Graph) connect(s *session) {
	log := g.log.With().Str("uri", s.uri).Logger()

	g.post(Message{Type: MsgBuffering, Percent: 0})

	src, err := g.opener.Open(s.ctx, s.uri, func(tags map[string]string) {
		g.post(Message{Type: MsgTags, Tags: tags})
	})
	if err != nil {
		if s.ctx.Err() == nil {
			g.post(Message{Type: MsgError, Err: err})
		}
		return
	}

	tap := &errTap{r: src}
	g.mu.Lock()
	if s.closed {
		g.mu.Unlock()
		src.Close()
		return
	}
	s.src = src
	s.tap = tap
	g.mu.Unlock()

	head, err := g.prebuffer(s, tap)
	if err != nil {
		if s.ctx.Err() == nil {
			g.post(Message{Type: MsgError, Err: fmt.Errorf("prebuffer: %w", err)})
		}
		return
	}

	// Resolve every pad before linking: linkAudio keeps the goroutine as
	// the pump for the life of the stream.
	audioMedia := KindUnknown
	audioLinked := false
	for _, pad := range Sniff(head) {
		if g.padAdded(s, pad, log) == LinkAudio {
			audioMedia = pad.Media
			audioLinked = true
		}
	}
	if audioLinked {
		g.linkAudio(s, audioMedia, rejoin(head, tap))
	}
}

// prebuffer fills the probe window, reporting progress in buffering
// percent steps. A short file that ends inside the window is still
// playable; the sniffed head is simply smaller.
func (g *Graph) prebuffer(s *session, src io.Reader) ([]byte, error) {
	head := make([]byte, g.cfg.Prebuffer)
	filled := 0
	lastStep := -1
	for filled < len(head) {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}
		n, err := src.Read(head[filled:])
		filled += n
		step := filled * 100 / len(head)
		step -= step % 5
		if step != lastStep && step < 100 {
			lastStep = step
			g.post(Message{Type: MsgBuffering, Percent: step})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	g.post(Message{Type: MsgBuffering, Percent: 100})
	return head[:filled], nil
}

// padAdded resolves one discovered pad against the session's link flags.
// Once audio is linked, further audio pads are ignored; video pads are
// routed to the discard path once. Nothing consumes a discarded video
// stream: the native decoders see none and the ffmpeg path drops it
// with -vn.
func (g *Graph) padAdded(s *session, pad Pad, log zerolog.Logger) LinkAction {
	g.mu.Lock()
	action := resolvePad(pad, s.flags)
	switch action {
	case LinkAudio:
		s.flags.audio = true
	case LinkDiscard:
		s.flags.video = true
	}
	g.mu.Unlock()

	log.Debug().
		Str("pad", pad.Kind.String()).
		Str("media", pad.Media.String()).
		Str("action", action.String()).
		Msg("Pad resolved")

	return action
}

// linkAudio builds the chain over the probed stream and hands the playback
// branch to the sink.
func (g *Graph) linkAudio(s *session, media MediaKind, body io.ReadCloser) {
	decoder, format, err := newDecoder(media, body, g.cfg.FFmpegPath, int(g.cfg.SinkRate))
	if err != nil {
		if s.ctx.Err() == nil {
			g.post(Message{Type: MsgError, Err: fmt.Errorf("decode %s: %w", media, err)})
		}
		return
	}

	var streamer beep.Streamer = decoder
	if format.SampleRate != g.cfg.SinkRate {
		streamer = beep.Resample(resampleQuality, format.SampleRate, g.cfg.SinkRate, streamer)
	}

	g.mu.Lock()
	if s.closed {
		g.mu.Unlock()
		decoder.Close()
		return
	}
	eq := equalizer.NewStreamer(streamer, g.cfg.SinkRate, s.gains)
	tee := NewTee(eq)
	vol := &effects.Volume{
		Streamer: &playStreamer{ch: s.sampleCh},
		Base:     2,
		Volume:   percentToExponent(float64(s.volumePercent)),
		Silent:   s.volumePercent == 0,
	}
	ctrl := &beep.Ctrl{Streamer: vol, Paused: s.wantPaused}
	s.decoder = decoder
	s.eq = eq
	s.tee = tee
	s.volume = vol
	s.ctrl = ctrl
	s.started = true
	g.mu.Unlock()

	if err := g.sink.Init(g.cfg.SinkRate, g.cfg.SinkRate.N(g.cfg.SinkBuffer)); err != nil {
		g.post(Message{Type: MsgError, Err: fmt.Errorf("init sink: %w", err)})
		return
	}
	g.sink.Play(beep.Seq(ctrl, beep.Callback(func() {
		g.post(Message{Type: MsgEOS})
	})))
	g.post(Message{Type: MsgStreamStarted})

	g.pump(s, tee)
}

// pump pulls the fan-out and feeds the playback queue until the source
// drains or the session is torn down. Closing the queue is how the
// playback branch learns the stream ended.
func (g *Graph) pump(s *session, tee *Tee) {
	defer close(s.sampleCh)
	buf := make([][2]float64, pumpChunkSamples)
	for {
		if s.ctx.Err() != nil {
			return
		}
		n, ok := tee.Stream(buf)
		if !ok {
			err := tee.Err()
			if err == nil && s.tap != nil {
				err = s.tap.Err()
			}
			if err != nil && s.ctx.Err() == nil {
				g.post(Message{Type: MsgError, Err: err})
			}
			return
		}
		for i := 0; i < n; i++ {
			select {
			case s.sampleCh <- buf[i]:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// playStreamer drains the playback queue, substituting silence while the
// pump rebuffers so the sink never blocks on the network. A closed queue
// finishes the streamer.
type playStreamer struct {
	ch      <-chan [2]float64
	drained bool
}

func (p *playStreamer) Stream(samples [][2]float64) (int, bool) {
	if p.drained {
		return 0, false
	}
	for i := range samples {
		select {
		case smp, ok := <-p.ch:
			if !ok {
				p.drained = true
				for j := i; j < len(samples); j++ {
					samples[j] = [2]float64{}
				}
				return len(samples), true
			}
			samples[i] = smp
		default:
			samples[i] = [2]float64{}
		}
	}
	return len(samples), true
}

func (p *playStreamer) Err() error {
	return nil
}

// errTap records the first non-EOF error from the underlying source, so
// transport failures survive decoders that flatten them into EOF.
type errTap struct {
	r io.ReadCloser

	mu  sync.Mutex
	err error
}

func (t *errTap) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.mu.Lock()
		if t.err == nil {
			t.err = err
		}
		t.mu.Unlock()
	}
	return n, err
}

func (t *errTap) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *errTap) Close() error {
	return t.r.Close()
}

// percentToExponent maps a 0..100 volume percent onto the exponential
// gain curve of the playback volume node.
func percentToExponent(p float64) float64 {
	if p <= 0 {
		return minVolumeExponent
	}
	if p >= 100 {
		return 0
	}
	normalized := p / 100.0
	adjusted := math.Pow(normalized, volumeCurveExponent)
	return (1.0 - adjusted) * minVolumeExponent
}
