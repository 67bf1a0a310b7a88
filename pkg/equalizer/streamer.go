package equalizer

import (
	"math"

	"github.com/faiface/beep"
)

// bandQ is the quality factor of each peaking filter. The ten bands sit an
// octave apart, so a Q near 1.41 gives adjacent bands roughly one octave
// of bandwidth each.
const bandQ = 1.41

// Streamer is the live equalizer node: a cascade of ten peaking biquad
// filters applied to both channels. Gains are mutable at runtime; callers
// bracket SetGain/SetGains with the sink lock, the same contract as every
// other live streamer parameter. A band at 0 dB is a true bypass.
type Streamer struct {
	src   beep.Streamer
	rate  float64
	bands [BandCount]biquad
}

// NewStreamer builds the node over src for the given sample rate, with an
// initial gain curve.
func NewStreamer(src beep.Streamer, sampleRate beep.SampleRate, gains [BandCount]float64) *Streamer {
	s := &Streamer{src: src, rate: float64(sampleRate)}
	for i := range s.bands {
		s.bands[i].configure(BandFrequencies[i], s.rate, Clamp(gains[i]))
	}
	return s
}

// SetGain reconfigures one band. Out-of-range indices are ignored; the
// control layer validates them before they reach the node.
func (s *Streamer) SetGain(index int, db float64) {
	if index < 0 || index >= BandCount {
		return
	}
	s.bands[index].configure(BandFrequencies[index], s.rate, Clamp(db))
}

// SetGains reconfigures the whole curve at once.
func (s *Streamer) SetGains(gains [BandCount]float64) {
	for i := range s.bands {
		s.bands[i].configure(BandFrequencies[i], s.rate, Clamp(gains[i]))
	}
}

// Gain returns the configured gain of one band.
func (s *Streamer) Gain(index int) float64 {
	if index < 0 || index >= BandCount {
		return 0
	}
	return s.bands[index].gain
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := s.src.Stream(samples)
	if n == 0 {
		return n, ok
	}
	for b := range s.bands {
		band := &s.bands[b]
		if !band.active {
			continue
		}
		for i := 0; i < n; i++ {
			samples[i][0] = band.process(0, samples[i][0])
			samples[i][1] = band.process(1, samples[i][1])
		}
	}
	return n, ok
}

func (s *Streamer) Err() error {
	return s.src.Err()
}

// biquad is one peaking filter with per-channel state (direct form 1,
// coefficients from the RBJ audio EQ cookbook).
type biquad struct {
	gain   float64
	active bool

	b0, b1, b2, a1, a2 float64

	x1, x2 [2]float64
	y1, y2 [2]float64
}

func (f *biquad) configure(freq, rate, gainDB float64) {
	f.gain = gainDB
	f.active = gainDB != 0
	// Filter state restarts on reconfiguration; stale state from the old
	// coefficients can ring.
	f.x1, f.x2 = [2]float64{}, [2]float64{}
	f.y1, f.y2 = [2]float64{}, [2]float64{}
	if !f.active {
		return
	}

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / rate
	alpha := math.Sin(w0) / (2 * bandQ)
	cosW0 := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	f.b0 = b0 / a0
	f.b1 = b1 / a0
	f.b2 = b2 / a0
	f.a1 = a1 / a0
	f.a2 = a2 / a0
}

func (f *biquad) process(ch int, x float64) float64 {
	y := f.b0*x + f.b1*f.x1[ch] + f.b2*f.x2[ch] - f.a1*f.y1[ch] - f.a2*f.y2[ch]
	f.x2[ch] = f.x1[ch]
	f.x1[ch] = x
	f.y2[ch] = f.y1[ch]
	f.y1[ch] = y
	return y
}
