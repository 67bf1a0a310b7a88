// Package spectrum computes frequency-band levels from the audio fan-out
// for visualization. An Analyzer consumes frame chunks from a graph
// branch, runs a windowed FFT over a sliding mono mix and emits one
// level slice per analysis hop.
package spectrum

import (
	"math"
	"time"

	"github.com/mjibson/go-dsp/fft"
)

// Config carries the analyzer's tunable parameters.
type Config struct {
	// FFTSize is the analysis window length in samples. Must be a power
	// of two.
	FFTSize int

	// Bands is the number of output bins, spaced logarithmically between
	// MinHz and MaxHz.
	Bands int

	// Interval is the minimum spacing between emitted frames.
	Interval time.Duration

	// MinHz and MaxHz bound the analyzed frequency range.
	MinHz float64
	MaxHz float64

	// FloorDB is the level assigned to silence; band levels are clamped
	// to [FloorDB, 0].
	FloorDB float64
}

// DefaultConfig returns an analyzer configuration suited for a terminal
// level display.
func DefaultConfig() Config {
	return Config{
		FFTSize:  2048,
		Bands:    24,
		Interval: 50 * time.Millisecond,
		MinHz:    20,
		MaxHz:    20000,
		FloorDB:  -90,
	}
}

// Analyzer turns a stream of stereo frames into band level frames.
// Run consumes a branch queue until it closes; emission happens on the
// consuming goroutine.
type Analyzer struct {
	cfg    Config
	rate   int
	emit   func(bins []float64)
	window []float64
	buf    []float64
	edges  []int
	last   time.Time
}

// NewAnalyzer creates an analyzer for the given sample rate. Zero config
// fields are filled with defaults.
func NewAnalyzer(cfg Config, sampleRate int, emit func(bins []float64)) *Analyzer {
	def := DefaultConfig()
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = def.FFTSize
	}
	if cfg.Bands <= 0 {
		cfg.Bands = def.Bands
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MinHz <= 0 {
		cfg.MinHz = def.MinHz
	}
	if cfg.MaxHz <= cfg.MinHz {
		cfg.MaxHz = def.MaxHz
	}
	if cfg.FloorDB >= 0 {
		cfg.FloorDB = def.FloorDB
	}
	a := &Analyzer{
		cfg:    cfg,
		rate:   sampleRate,
		emit:   emit,
		window: hannWindow(cfg.FFTSize),
		buf:    make([]float64, 0, cfg.FFTSize*2),
	}
	a.edges = bandEdges(cfg, sampleRate)
	return a
}

// Run drains the frame channel until it closes. Each chunk is mixed to
// mono and appended to the sliding analysis buffer; a full window is
// transformed and emitted at most once per Interval.
func (a *Analyzer) Run(frames <-chan [][2]float64) {
	for chunk := range frames {
		for _, s := range chunk {
			a.buf = append(a.buf, (s[0]+s[1])/2)
		}
		a.analyze()
	}
}

func (a *Analyzer) analyze() {
	hop := a.cfg.FFTSize / 2
	for len(a.buf) >= a.cfg.FFTSize {
		if time.Since(a.last) >= a.cfg.Interval {
			a.last = time.Now()
			a.emit(a.levels())
		}
		a.buf = a.buf[:copy(a.buf, a.buf[hop:])]
	}
}

// levels windows the head of the buffer, transforms it and folds the
// magnitudes into log-spaced dB bands.
func (a *Analyzer) levels() []float64 {
	n := a.cfg.FFTSize
	window := make([]float64, n)
	for i := 0; i < n; i++ {
		window[i] = a.buf[i] * a.window[i]
	}
	coeffs := fft.FFTReal(window)

	// Hann window coherent gain is n/2.
	norm := 2.0 / float64(n)
	bins := make([]float64, a.cfg.Bands)
	for b := 0; b < a.cfg.Bands; b++ {
		lo, hi := a.edges[b], a.edges[b+1]
		if hi <= lo {
			hi = lo + 1
		}
		sum := 0.0
		for k := lo; k < hi && k < len(coeffs)/2; k++ {
			re, im := real(coeffs[k]), imag(coeffs[k])
			sum += math.Sqrt(re*re+im*im) * norm
		}
		mag := sum / float64(hi-lo)
		db := a.cfg.FloorDB
		if mag > 0 {
			db = 20 * math.Log10(mag)
		}
		if db < a.cfg.FloorDB {
			db = a.cfg.FloorDB
		}
		if db > 0 {
			db = 0
		}
		bins[b] = db
	}
	return bins
}

// bandEdges maps each band boundary onto an FFT bin index. Edges are
// geometric between MinHz and MaxHz, clamped to the representable range.
func bandEdges(cfg Config, rate int) []int {
	edges := make([]int, cfg.Bands+1)
	ratio := cfg.MaxHz / cfg.MinHz
	binHz := float64(rate) / float64(cfg.FFTSize)
	for i := 0; i <= cfg.Bands; i++ {
		f := cfg.MinHz * math.Pow(ratio, float64(i)/float64(cfg.Bands))
		k := int(f / binHz)
		if k < 1 {
			k = 1
		}
		if k > cfg.FFTSize/2 {
			k = cfg.FFTSize / 2
		}
		edges[i] = k
	}
	return edges
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
